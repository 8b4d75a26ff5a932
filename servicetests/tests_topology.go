package servicetests

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transportpce/servicehandler-tests/restconf"
	"github.com/transportpce/servicehandler-tests/servicedef"
)

// ControllerConfigNodePath is the netconf node of the controller itself. It is present as soon
// as RESTCONF is up, which also makes it a good readiness probe.
var ControllerConfigNodePath = restconf.OperationalPath(
	"network-topology:network-topology", "topology", "topology-netconf", "node", "controller-config")

var topologyPath = restconf.ConfigPath("ietf-network:network", "openroadm-topology")

// Links the honeynode topology must contain between the transponders and the ROADMs.
var expectedLinks = []string{
	"XPDRA-XPDR1-XPDR1-NETWORK1toROADMA-SRG1-SRG1-PP1-TXRX",
	"XPDRC-XPDR1-XPDR1-NETWORK1toROADMC-SRG1-SRG1-PP1-TXRX",
	"ROADMA-SRG1-SRG1-PP1-TXRXtoXPDRA-XPDR1-XPDR1-NETWORK1",
	"ROADMC-SRG1-SRG1-PP1-TXRXtoXPDRC-XPDR1-XPDR1-NETWORK1",
}

func DoRestconfAPITests(t *T) {
	t.Run("controller connected", func(t *T) {
		resp := t.RequireGet(ControllerConfigNodePath)
		RequireStatus(t, resp, 200)
		status := RequireString(t, resp, servicedef.ConnectionStatusPath...)
		assert.Equal(t, servicedef.ConnectionStatusConnected, status)
		t.Settle(1)
	})
}

func DoTopologyTests(t *T, topologyFile string) {
	t.Run("load honeynode topology", func(t *T) {
		data, err := os.ReadFile(topologyFile)
		if errors.Is(err, os.ErrNotExist) {
			t.Skip(fmt.Sprintf("topology file %s not found", topologyFile))
		}
		require.NoError(t, err)
		require.NoError(t, checkWellFormedXML(data), "topology file %s", topologyFile)

		t.RequirePutXML(topologyPath, data)
		t.Settle(2)
	})

	for _, link := range expectedLinks {
		link := link
		t.Run("link "+link, func(t *T) {
			resp := t.RequireGet(restconf.ConfigPath("ietf-network:network", "openroadm-topology", "link", link))
			RequireStatus(t, resp, 200)
			t.Settle(1)
		})
	}
}

func checkWellFormedXML(data []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	sawElement := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("malformed XML: %w", err)
		}
		if _, ok := token.(xml.StartElement); ok {
			sawElement = true
		}
	}
	if !sawElement {
		return errors.New("malformed XML: no root element")
	}
	return nil
}
