// Package servicetests contains the service handler end-to-end tests themselves and their
// supporting API.
//
// Infrastructure that is not specific to the service handler, such as running the controller
// process, talking RESTCONF and receiving notifications, is in the lower-level framework,
// controller and restconf packages.
package servicetests
