package transferstate

import "net/url"

// Key returns the cache key for a request path and its query parameters.
// url.Values.Encode sorts parameters by name, so the key does not depend on
// the order in which parameters were added. The same (path, params) pair
// always yields the same key on both the server and the client.
//
// A request with no parameters still gets the "?" separator, so the key for
// "/api/users" is "/api/users?".
func Key(path string, params url.Values) string {
	return path + "?" + params.Encode()
}
