package servicetests

import (
	"github.com/transportpce/servicehandler-tests/servicedef"
)

const (
	testServiceName    = "test"
	missingServiceName = "test1"

	messageServiceRendered      = "Service rendered successfully !"
	messageMissingHeader        = "Service sndc-request-header is not set"
	messageBadTxDirection       = "Service TxDirection is not correctly set"
	messageServiceDeleteSuccess = "Service delete was successful!"
)

func DoServiceCreateTests(t *T) {
	t.Run("valid service", func(t *T) {
		input := servicedef.ServiceCreateXPDRAToXPDRC(testServiceName, t.NotificationURL())
		resp := t.RequireServiceRPC(servicedef.RPCServiceCreate, input)
		AssertResponseMessageContains(t, resp, messageServiceRendered)
		t.Settle(10)
	})

	t.Run("missing request header", func(t *T) {
		input := servicedef.ServiceCreateXPDRAToXPDRC(testServiceName, t.NotificationURL()).WithoutRequestHeader()
		resp := t.RequireServiceRPC(servicedef.RPCServiceCreate, input)
		AssertResponseMessageContains(t, resp, messageMissingHeader)
		t.Settle(5)
	})

	t.Run("missing a-end tx-direction", func(t *T) {
		input := servicedef.ServiceCreateXPDRAToXPDRC(testServiceName, t.NotificationURL()).WithoutAEndTxDirection()
		resp := t.RequireServiceRPC(servicedef.RPCServiceCreate, input)
		AssertResponseMessageContains(t, resp, messageBadTxDirection)
		t.Settle(5)
	})
}
