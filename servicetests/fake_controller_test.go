package servicetests_test

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

const (
	servicesPrefix = "/restconf/operational/org-openroadm-service:service-list/services/"
	linkPrefix     = "/restconf/config/ietf-network:network/openroadm-topology/link/"
)

// fakeController answers the RESTCONF requests of the scenario the way a healthy controller
// does, keeping track of which services exist.
type fakeController struct {
	server           *ghttp.Server
	lock             sync.Mutex
	services         map[string]bool
	topology         []byte
	connectionStatus string

	// failCreate makes a valid service-create answer with this message and not create anything.
	failCreate string
	// keepDeleted makes service-delete report success but leave the service in place.
	keepDeleted bool
}

func newFakeController() *fakeController {
	f := &fakeController{
		server:           ghttp.NewServer(),
		services:         make(map[string]bool),
		connectionStatus: "connected",
	}
	auth := ghttp.VerifyBasicAuth("admin", "admin")

	f.server.RouteToHandler(http.MethodGet,
		"/restconf/operational/network-topology:network-topology/topology/topology-netconf/node/controller-config",
		ghttp.CombineHandlers(auth, func(w http.ResponseWriter, req *http.Request) {
			f.lock.Lock()
			status := f.connectionStatus
			f.lock.Unlock()
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"node": []interface{}{map[string]interface{}{
					"node-id": "controller-config",
					"netconf-node-topology:connection-status": status,
				}},
			})
		}))

	f.server.RouteToHandler(http.MethodPut, "/restconf/config/ietf-network:network/openroadm-topology",
		ghttp.CombineHandlers(auth, ghttp.VerifyContentType("application/xml"),
			func(w http.ResponseWriter, req *http.Request) {
				body, _ := io.ReadAll(req.Body)
				f.lock.Lock()
				f.topology = body
				f.lock.Unlock()
				w.WriteHeader(http.StatusOK)
			}))

	f.server.RouteToHandler(http.MethodGet, regexp.MustCompile("^"+regexp.QuoteMeta(linkPrefix)+".+$"),
		ghttp.CombineHandlers(auth, func(w http.ResponseWriter, req *http.Request) {
			id := strings.TrimPrefix(req.URL.Path, linkPrefix)
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"ietf-network-topology:link": []interface{}{map[string]interface{}{"link-id": id}},
			})
		}))

	f.server.RouteToHandler(http.MethodPost, "/restconf/operations/org-openroadm-service:service-create",
		ghttp.CombineHandlers(auth, ghttp.VerifyContentType("application/json"), f.serviceCreate))

	f.server.RouteToHandler(http.MethodPost, "/restconf/operations/org-openroadm-service:service-delete",
		ghttp.CombineHandlers(auth, ghttp.VerifyContentType("application/json"), f.serviceDelete))

	f.server.RouteToHandler(http.MethodGet, regexp.MustCompile("^"+regexp.QuoteMeta(servicesPrefix)+".+$"),
		ghttp.CombineHandlers(auth, func(w http.ResponseWriter, req *http.Request) {
			name := strings.TrimPrefix(req.URL.Path, servicesPrefix)
			f.lock.Lock()
			exists := f.services[name]
			f.lock.Unlock()
			if !exists {
				writeJSON(w, http.StatusNotFound, map[string]interface{}{
					"errors": map[string]interface{}{"error": []interface{}{map[string]interface{}{
						"error-type": "application",
						"error-tag":  "data-missing",
					}}},
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"services": []interface{}{map[string]interface{}{
					"service-name":         name,
					"administrative-state": "inService",
				}},
			})
		}))

	return f
}

func (f *fakeController) baseURL() string {
	return f.server.URL() + "/restconf"
}

func (f *fakeController) close() {
	f.server.Close()
}

func (f *fakeController) setConnectionStatus(status string) {
	f.lock.Lock()
	f.connectionStatus = status
	f.lock.Unlock()
}

func (f *fakeController) setCreateFailure(message string) {
	f.lock.Lock()
	f.failCreate = message
	f.lock.Unlock()
}

func (f *fakeController) setKeepDeleted(keep bool) {
	f.lock.Lock()
	f.keepDeleted = keep
	f.lock.Unlock()
}

func (f *fakeController) receivedTopology() []byte {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.topology
}

func (f *fakeController) receivedRequests(method, pathPrefix string) int {
	n := 0
	for _, r := range f.server.ReceivedRequests() {
		if r.Method == method && strings.HasPrefix(r.URL.Path, pathPrefix) {
			n++
		}
	}
	return n
}

type rpcInput struct {
	Input map[string]json.RawMessage `json:"input"`
}

type requestHeader struct {
	RequestID       string `json:"request-id"`
	NotificationURL string `json:"notification-url"`
}

func (f *fakeController) serviceCreate(w http.ResponseWriter, req *http.Request) {
	var in rpcInput
	Expect(json.NewDecoder(req.Body).Decode(&in)).To(Succeed())

	var header requestHeader
	if raw, ok := in.Input["sdnc-request-header"]; ok {
		Expect(json.Unmarshal(raw, &header)).To(Succeed())
		Expect(header.RequestID).NotTo(BeEmpty())
	} else {
		writeResponseMessage(w, "Service sndc-request-header is not set")
		return
	}

	var aEnd map[string]json.RawMessage
	Expect(json.Unmarshal(in.Input["service-a-end"], &aEnd)).To(Succeed())
	if _, ok := aEnd["tx-direction"]; !ok {
		writeResponseMessage(w, "Service TxDirection is not correctly set")
		return
	}

	var name string
	Expect(json.Unmarshal(in.Input["service-name"], &name)).To(Succeed())
	f.lock.Lock()
	failure := f.failCreate
	if failure == "" {
		f.services[name] = true
	}
	f.lock.Unlock()
	if failure != "" {
		writeResponseMessage(w, failure)
		return
	}
	writeResponseMessage(w, "Service rendered successfully !")

	if header.NotificationURL != "" {
		notification := []byte(`{"service-name":"` + name + `","notification-type":"service-create-result"}`)
		resp, err := http.Post(header.NotificationURL, "application/json", bytes.NewReader(notification))
		if err == nil {
			resp.Body.Close()
		}
	}
}

func (f *fakeController) serviceDelete(w http.ResponseWriter, req *http.Request) {
	var in struct {
		Input struct {
			Info struct {
				ServiceName string `json:"service-name"`
			} `json:"service-delete-req-info"`
		} `json:"input"`
	}
	Expect(json.NewDecoder(req.Body).Decode(&in)).To(Succeed())
	f.lock.Lock()
	exists := f.services[in.Input.Info.ServiceName]
	if !f.keepDeleted {
		delete(f.services, in.Input.Info.ServiceName)
	}
	f.lock.Unlock()
	if !exists {
		writeResponseMessage(w, "Service '"+in.Input.Info.ServiceName+"' does not exist in datastore")
		return
	}
	writeResponseMessage(w, "Service delete was successful!")
}

func writeResponseMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"output": map[string]interface{}{
			"configuration-response-common": map[string]interface{}{
				"response-code":       "200",
				"ack-final-indicator": "Yes",
				"response-message":    message,
			},
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	Expect(err).NotTo(HaveOccurred())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
