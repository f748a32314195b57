package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/hoply/hoply/internal/core/domain"
)

// buildSchema exposes the read side of the API over GraphQL. Field names
// follow the JSON tags of the domain types.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	matchType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Match",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"league":      &graphql.Field{Type: graphql.String},
			"sport":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"home_team":   &graphql.Field{Type: graphql.String},
			"away_team":   &graphql.Field{Type: graphql.String},
			"event_date":  &graphql.Field{Type: graphql.DateTime},
			"event_time":  &graphql.Field{Type: graphql.DateTime},
			"stadium":     &graphql.Field{Type: graphql.String},
			"latitude":    &graphql.Field{Type: graphql.Float},
			"longitude":   &graphql.Field{Type: graphql.Float},
			"date_string": &graphql.Field{Type: graphql.String},
		},
	})

	cityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "City",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":         &graphql.Field{Type: graphql.String},
			"ascii_name":   &graphql.Field{Type: graphql.String},
			"country_code": &graphql.Field{Type: graphql.String},
			"latitude":     &graphql.Field{Type: graphql.Float},
			"longitude":    &graphql.Field{Type: graphql.Float},
			"population":   &graphql.Field{Type: graphql.Int},
		},
	})

	sectionsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CompletedSections",
		Fields: graphql.Fields{
			"tickets":       &graphql.Field{Type: graphql.Boolean},
			"travel":        &graphql.Field{Type: graphql.Boolean},
			"accommodation": &graphql.Field{Type: graphql.Boolean},
		},
	})

	savedType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SavedMatch",
		Fields: graphql.Fields{
			"owner_id":           &graphql.Field{Type: graphql.String},
			"match":              &graphql.Field{Type: matchType},
			"completed_sections": &graphql.Field{Type: sectionsType},
			"saved_at":           &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"matches": &graphql.Field{
				Type:        graphql.NewList(matchType),
				Description: "Search matches; filters behave like GET /v1/matches",
				Args: graphql.FieldConfigArgument{
					"sport":    &graphql.ArgumentConfig{Type: graphql.String},
					"dateFrom": &graphql.ArgumentConfig{Type: graphql.String},
					"dateTo":   &graphql.ArgumentConfig{Type: graphql.String},
					"lat":      &graphql.ArgumentConfig{Type: graphql.Float},
					"lng":      &graphql.ArgumentConfig{Type: graphql.Float},
					"distance": &graphql.ArgumentConfig{Type: graphql.Float},
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Matches.Query(p.Context, matchQueryFromArgs(p.Args, deps))
				},
			},
			"match": &graphql.Field{
				Type:        matchType,
				Description: "Get a match by id",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := strconv.ParseInt(p.Args["id"].(string), 10, 64)
					if err != nil {
						return nil, err
					}
					return deps.Matches.GetByID(p.Context, id)
				},
			},
			"cities": &graphql.Field{
				Type:        graphql.NewList(cityType),
				Description: "Cities whose name starts with q",
				Args: graphql.FieldConfigArgument{
					"q": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Cities.Search(p.Context, p.Args["q"].(string))
				},
			},
			"savedMatches": &graphql.Field{
				Type:        graphql.NewList(savedType),
				Description: "Saved matches of an owner",
				Args: graphql.FieldConfigArgument{
					"owner": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Saved.List(p.Context, p.Args["owner"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

func matchQueryFromArgs(args map[string]interface{}, deps *Dependencies) domain.MatchQuery {
	var q domain.MatchQuery
	if s, ok := args["sport"].(string); ok {
		q.Sport = normalizeSport(s)
	}
	if s, ok := args["dateFrom"].(string); ok {
		q.DateFrom = parseDay(s)
	}
	if s, ok := args["dateTo"].(string); ok {
		q.DateTo = parseDay(s)
	}
	lat, okLat := args["lat"].(float64)
	lng, okLng := args["lng"].(float64)
	if okLat && okLng {
		q.Center = &domain.GeoPoint{Lat: lat, Lng: lng}
	}
	if r, ok := args["distance"].(float64); ok {
		q.RadiusKm = &r
	}
	limit, _ := args["limit"].(int)
	q.Limit = clampLimit(limit, deps.Search)
	return q
}

type gqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// GraphQLHandler serves POST /graphql.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})
		return c.JSON(result)
	}
}
