// Package httpapi exposes the intake forms over HTTP.
//
// Every request first passes the origin check, then CORS header handling,
// then the route. Write routes decode the JSON body, validate required
// fields, and block until the recorder reports the write's outcome.
package httpapi
