// Package servicedef defines the request payloads of the service handler RPCs, and the names of
// the response fields the test suite reads.
package servicedef

const (
	ServiceModule = "org-openroadm-service"

	RPCServiceCreate = "service-create"
	RPCServiceDelete = "service-delete"

	// ServiceListPath is the operational container holding every provisioned service.
	ServiceListPath = "org-openroadm-service:service-list"
)

// SDNCRequestHeader identifies the request and where the controller should send notifications.
type SDNCRequestHeader struct {
	RequestID       string `json:"request-id"`
	RPCAction       string `json:"rpc-action"`
	RequestSystemID string `json:"request-system-id"`
	NotificationURL string `json:"notification-url"`
}

// ServiceCreateInput is the input of the service-create RPC. SDNCRequestHeader is a pointer so
// that it can be omitted to exercise the controller's validation.
type ServiceCreateInput struct {
	SDNCRequestHeader *SDNCRequestHeader `json:"sdnc-request-header,omitempty"`
	ServiceName       string             `json:"service-name"`
	CommonID          string             `json:"common-id"`
	ConnectionType    string             `json:"connection-type"`
	ServiceAEnd       ServiceEndpoint    `json:"service-a-end"`
	ServiceZEnd       ServiceEndpoint    `json:"service-z-end"`
	DueDate           string             `json:"due-date"`
	OperatorContact   string             `json:"operator-contact"`
}

// ServiceEndpoint is one end of a service. Either direction may be omitted.
type ServiceEndpoint struct {
	ServiceRate   string     `json:"service-rate"`
	NodeID        string     `json:"node-id"`
	ServiceFormat string     `json:"service-format"`
	CLLI          string     `json:"clli"`
	TxDirection   *Direction `json:"tx-direction,omitempty"`
	RxDirection   *Direction `json:"rx-direction,omitempty"`
	OpticType     string     `json:"optic-type"`
}

type Direction struct {
	Port Port `json:"port"`
	LGX  LGX  `json:"lgx"`
}

type Port struct {
	DeviceName string `json:"port-device-name"`
	Type       string `json:"port-type"`
	Name       string `json:"port-name"`
	Rack       string `json:"port-rack"`
	Shelf      string `json:"port-shelf"`
}

type LGX struct {
	DeviceName string `json:"lgx-device-name"`
	PortName   string `json:"lgx-port-name"`
	PortRack   string `json:"lgx-port-rack"`
	PortShelf  string `json:"lgx-port-shelf"`
}

// ServiceDeleteInput is the input of the service-delete RPC.
type ServiceDeleteInput struct {
	SDNCRequestHeader *SDNCRequestHeader `json:"sdnc-request-header,omitempty"`
	DeleteReqInfo     ServiceDeleteInfo  `json:"service-delete-req-info"`
}

type ServiceDeleteInfo struct {
	ServiceName   string `json:"service-name"`
	DueDate       string `json:"due-date"`
	TailRetention string `json:"tail-retention"`
}

// Response fields, as paths into the JSON body.
var (
	ResponseMessagePath     = []interface{}{"output", "configuration-response-common", "response-message"}
	AdministrativeStatePath = []interface{}{"services", 0, "administrative-state"}
	ConnectionStatusPath    = []interface{}{"node", 0, "netconf-node-topology:connection-status"}
)

// Values the controller reports for a healthy setup.
const (
	ConnectionStatusConnected = "connected"
	StateInService            = "inService"
)
