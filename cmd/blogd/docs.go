package main

// General API documentation for swaggo. Run `swag init -g cmd/blogd/docs.go` to generate docs.
//
// @title           blogd API
// @version         1.0
// @description     REST API for blogs, tags and entries, with Server-Sent Event streams for open detail views.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
