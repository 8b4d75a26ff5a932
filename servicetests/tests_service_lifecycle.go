package servicetests

import (
	"github.com/stretchr/testify/assert"

	"github.com/transportpce/servicehandler-tests/restconf"
	"github.com/transportpce/servicehandler-tests/servicedef"
)

func servicePath(name string) string {
	return restconf.OperationalPath(servicedef.ServiceListPath, "services", name)
}

func DoServiceQueryTests(t *T) {
	t.Run("existing service", func(t *T) {
		resp := t.RequireGet(servicePath(testServiceName))
		RequireStatus(t, resp, 200)
		state := RequireString(t, resp, servicedef.AdministrativeStatePath...)
		assert.Equal(t, servicedef.StateInService, state)
		t.Settle(1)
	})

	t.Run("nonexistent service", func(t *T) {
		resp := t.RequireGet(servicePath(missingServiceName))
		RequireStatus(t, resp, 404)
		t.Settle(1)
	})
}

func DoServiceDeleteTests(t *T) {
	t.Run("existing service", func(t *T) {
		input := servicedef.ServiceDelete(testServiceName, t.NotificationURL())
		resp := t.RequireServiceRPC(servicedef.RPCServiceDelete, input)
		AssertResponseMessageContains(t, resp, messageServiceDeleteSuccess)
		t.Settle(1)
	})

	t.Run("service is gone", func(t *T) {
		resp := t.RequireGet(servicePath(testServiceName))
		RequireStatus(t, resp, 404)
		t.Settle(1)
	})
}
