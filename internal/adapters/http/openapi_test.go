package http_test

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/hoply/hoply/api"
)

func loadOpenAPI(t *testing.T) *openapi3.T {
	t.Helper()
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(api.OpenAPI)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI document: %v", err)
	}
	return doc
}

func TestOpenAPISpec(t *testing.T) {
	doc := loadOpenAPI(t)
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI validation failed: %v", err)
	}

	for _, path := range []string{
		"/v1/health",
		"/v1/ready",
		"/v1/matches",
		"/matches",
		"/v1/matches/{id}",
		"/v1/cities/search",
		"/v1/saved/{owner}",
		"/v1/saved/{owner}/{matchId}",
		"/v1/saved/{owner}/{matchId}/sections",
		"/graphql",
	} {
		if doc.Paths.Find(path) == nil {
			t.Errorf("expected path %s not found", path)
		}
	}

	for _, name := range []string{"Match", "City", "SavedMatch", "CompletedSections", "APIError"} {
		if doc.Components.Schemas[name] == nil {
			t.Errorf("expected schema %s not found", name)
		}
	}
}

func TestOpenAPI_LegacyPathDeprecated(t *testing.T) {
	doc := loadOpenAPI(t)
	item := doc.Paths.Find("/matches")
	if item == nil || item.Get == nil {
		t.Fatal("GET /matches missing")
	}
	if !item.Get.Deprecated {
		t.Error("GET /matches should be marked deprecated")
	}
	if doc.Info.Title != "Hoply API" {
		t.Errorf("title = %q", doc.Info.Title)
	}
}
