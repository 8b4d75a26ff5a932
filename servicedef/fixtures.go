package servicedef

import "github.com/google/uuid"

const (
	DefaultRequestSystemID = "appname"
	DefaultNotificationURL = "http://localhost:8585/NotificationServer/notify"
	DefaultDueDate         = "2016-11-28T00:00:01Z"
	DefaultCommonID        = "ASATT1234567"
	DefaultOperatorContact = "pw1234"
)

// NewRequestHeader returns a header for the given RPC with a fresh request id.
func NewRequestHeader(rpcAction, notificationURL string) *SDNCRequestHeader {
	if notificationURL == "" {
		notificationURL = DefaultNotificationURL
	}
	return &SDNCRequestHeader{
		RequestID:       uuid.NewString(),
		RPCAction:       rpcAction,
		RequestSystemID: DefaultRequestSystemID,
		NotificationURL: notificationURL,
	}
}

// routerEnd describes a 100G Ethernet router port patched through an LGX panel.
type routerEnd struct {
	nodeID     string
	clli       string
	txPort     string
	rxPort     string
	txLGXPort  string
	rxLGXPort  string
	deviceRack string
}

func (r routerEnd) endpoint() ServiceEndpoint {
	routerName := "ROUTER_" + r.clli + "_" + r.deviceRack + "_00"
	lgxName := "LGX Panel_" + r.clli + "_" + r.deviceRack + "_00"
	direction := func(portName, lgxPort string) *Direction {
		return &Direction{
			Port: Port{
				DeviceName: routerName,
				Type:       "router",
				Name:       portName,
				Rack:       r.deviceRack,
				Shelf:      "00",
			},
			LGX: LGX{
				DeviceName: lgxName,
				PortName:   lgxPort,
				PortRack:   r.deviceRack,
				PortShelf:  "00",
			},
		}
	}
	return ServiceEndpoint{
		ServiceRate:   "100",
		NodeID:        r.nodeID,
		ServiceFormat: "Ethernet",
		CLLI:          r.clli,
		TxDirection:   direction(r.txPort, r.txLGXPort),
		RxDirection:   direction(r.rxPort, r.rxLGXPort),
		OpticType:     "gray",
	}
}

var (
	xpdrAEnd = routerEnd{
		nodeID:     "XPDRA",
		clli:       "SNJSCAMCJP8",
		txPort:     "Gigabit Ethernet_Tx.ge-5/0/0.0",
		rxPort:     "Gigabit Ethernet_Rx.ge-5/0/0.0",
		txLGXPort:  "LGX Back.3",
		rxLGXPort:  "LGX Back.4",
		deviceRack: "000000.00",
	}
	xpdrCEnd = routerEnd{
		nodeID:     "XPDRC",
		clli:       "SNJSCAMCJT4",
		txPort:     "Gigabit Ethernet_Tx.ge-1/0/0.0",
		rxPort:     "Gigabit Ethernet_Rx.ge-1/0/0.0",
		txLGXPort:  "LGX Back.29",
		rxLGXPort:  "LGX Back.30",
		deviceRack: "000000.00",
	}
)

// ServiceCreateXPDRAToXPDRC is a complete, valid 100G Ethernet service between XPDRA and XPDRC.
func ServiceCreateXPDRAToXPDRC(serviceName, notificationURL string) ServiceCreateInput {
	return ServiceCreateInput{
		SDNCRequestHeader: NewRequestHeader(RPCServiceCreate, notificationURL),
		ServiceName:       serviceName,
		CommonID:          DefaultCommonID,
		ConnectionType:    "infrastructure",
		ServiceAEnd:       xpdrAEnd.endpoint(),
		ServiceZEnd:       xpdrCEnd.endpoint(),
		DueDate:           DefaultDueDate,
		OperatorContact:   DefaultOperatorContact,
	}
}

// WithoutRequestHeader returns a copy of the input with no sdnc-request-header.
func (in ServiceCreateInput) WithoutRequestHeader() ServiceCreateInput {
	in.SDNCRequestHeader = nil
	return in
}

// WithoutAEndTxDirection returns a copy of the input whose a-end has no tx-direction.
func (in ServiceCreateInput) WithoutAEndTxDirection() ServiceCreateInput {
	in.ServiceAEnd.TxDirection = nil
	return in
}

// ServiceDelete asks for a service to be deleted without tail retention.
func ServiceDelete(serviceName, notificationURL string) ServiceDeleteInput {
	return ServiceDeleteInput{
		SDNCRequestHeader: NewRequestHeader(RPCServiceDelete, notificationURL),
		DeleteReqInfo: ServiceDeleteInfo{
			ServiceName:   serviceName,
			DueDate:       DefaultDueDate,
			TailRetention: "no",
		},
	}
}
