// Package httpapi serves the circulation service over HTTP with fiber.
//
// Read endpoints return the bare JSON payload the library frontend renders. Lend and return carry
// success and a human message. Every failure is answered with {"success": false, "message": ...}
// and a status derived from the error kind: not found 404, conflict 409, invalid input 400,
// anything else 500.
package httpapi
