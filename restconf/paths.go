package restconf

import "strings"

// ConfigPath builds a path in the configuration datastore, e.g.
// ConfigPath("ietf-network:network", "openroadm-topology").
func ConfigPath(segments ...string) string {
	return datastorePath("config", segments)
}

// OperationalPath builds a path in the operational datastore.
func OperationalPath(segments ...string) string {
	return datastorePath("operational", segments)
}

// OperationsPath builds the path of an RPC.
func OperationsPath(module, rpc string) string {
	return "/operations/" + module + ":" + rpc
}

func datastorePath(datastore string, segments []string) string {
	return "/" + datastore + "/" + strings.Join(segments, "/")
}
