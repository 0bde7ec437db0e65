// Package connection is the request path to the dashboard API.
//
//   - http.go: HTTPClient, the request dispatcher (get/post/put/delete/request)
//   - classify.go: Classifier, which maps response statuses to domain errors
//     and hands 401s to the expiry coordinator
//   - socket.go: transports for TCP (with custom CA roots) and unix sockets
//   - manager.go: the client currently bound to a server
//
// Every response goes through the classifier. Transport errors are returned
// unmodified and nothing is retried.
package connection
