//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// docTemplate is a trimmed OpenAPI document; `swag init` regenerates the
// full one from the handler annotations.
const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/blogs": {"get": {"summary": "List blogs"}, "post": {"summary": "Create a blog"}, "put": {"summary": "Update a blog"}},
        "/api/tags": {"get": {"summary": "List tags"}, "post": {"summary": "Create a tag"}, "put": {"summary": "Update a tag"}},
        "/api/entries": {"get": {"summary": "List entries"}, "post": {"summary": "Create an entry"}, "put": {"summary": "Update an entry"}},
        "/api/_search/entries": {"get": {"summary": "Search entries"}},
        "/api/entries/{id}/watch": {"get": {"summary": "Watch an entry"}},
        "/api/blogs/{id}/watch": {"get": {"summary": "Watch a blog"}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "blogd API",
	Description:      "REST API for blogs, tags and entries with live detail streams.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves the Swagger UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
