package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"scribl/internal/config"
	"scribl/internal/export"
	"scribl/internal/graphdb"
	"scribl/internal/parser"
	"scribl/internal/store"
)

type ParseAnnotationInput struct {
	Text      string `json:"text" jsonschema:"tag-language annotation text"`
	Delimiter string `json:"delimiter,omitempty" jsonschema:"statement delimiter, defaults to ;"`
}

type SearchEntitiesInput struct {
	Query    string `json:"query" jsonschema:"search terms"`
	Snapshot string `json:"snapshot,omitempty" jsonschema:"snapshot label, defaults to the latest"`
	Type     string `json:"type,omitempty" jsonschema:"restrict to a specific entity type"`
}

type GetEntityInput struct {
	Type string `json:"type" jsonschema:"entity type, or article"`
	Name string `json:"name" jsonschema:"entity name or article key"`
}

type ShowRelationshipsInput struct {
	Type string `json:"type" jsonschema:"entity type, or article"`
	Name string `json:"name" jsonschema:"entity name or article key"`
}

type ListEntitiesInput struct {
	Type string `json:"type" jsonschema:"entity type, or article"`
}

type InspectGraphInput struct {
	List []string `json:"list,omitempty" jsonschema:"collections whose contents should be listed"`
}

type ExportCypherInput struct{}

type GetSchemaInput struct{}

type RelationOutput struct {
	Type   string `json:"type"`
	Target string `json:"target"`
}

type ParsedEntityOutput struct {
	Type          string           `json:"type"`
	Name          string           `json:"name"`
	URLs          []string         `json:"urls"`
	Labels        []string         `json:"labels"`
	Tags          []string         `json:"tags"`
	Notes         []string         `json:"notes"`
	Synonyms      []string         `json:"synonyms"`
	Relationships []RelationOutput `json:"relationships"`
}

type ParseAnnotationOutput struct {
	Entities []ParsedEntityOutput `json:"entities"`
	Warnings []string             `json:"warnings"`
	Errors   []string             `json:"errors"`
}

type MetadataOutput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type EntityOutput struct {
	Type     string           `json:"type"`
	Name     string           `json:"name"`
	URLs     []string         `json:"urls,omitempty"`
	Labels   []string         `json:"labels,omitempty"`
	Tags     []string         `json:"tags,omitempty"`
	Notes    []string         `json:"notes,omitempty"`
	Synonyms []string         `json:"synonyms,omitempty"`
	Metadata []MetadataOutput `json:"metadata,omitempty"`
}

type PairOutput struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type KindPairsOutput struct {
	Type  string       `json:"type"`
	Pairs []PairOutput `json:"pairs"`
}

type ShowRelationshipsOutput struct {
	Relationships []KindPairsOutput `json:"relationships"`
}

type ListEntitiesOutput struct {
	Names []string `json:"names"`
}

type SearchResultOutput struct {
	Snapshot string   `json:"snapshot"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Tags     []string `json:"tags"`
	Score    float64  `json:"score"`
	Snippet  string   `json:"snippet,omitempty"`
}

type SearchEntitiesOutput struct {
	Results []SearchResultOutput `json:"results"`
}

type CountOutput struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Items []string `json:"items,omitempty"`
}

type InspectGraphOutput struct {
	Collections   []CountOutput `json:"collections"`
	Relationships []CountOutput `json:"relationships"`
}

type ExportCypherOutput struct {
	Statements int    `json:"statements"`
	Text       string `json:"text"`
}

type EntityTypeOutput struct {
	Name   string   `json:"name"`
	Header string   `json:"header"`
	Label  string   `json:"label"`
	Fields []string `json:"fields"`
}

type RelationshipTypeOutput struct {
	Name   string `json:"name"`
	Marker string `json:"marker,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type SchemaOutput struct {
	EntityTypes       []EntityTypeOutput       `json:"entity_types"`
	RelationshipTypes []RelationshipTypeOutput `json:"relationship_types"`
	AgentLabels       []string                 `json:"agent_labels"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "parse_annotation",
		Description: "Parse tag-language text into entities, relationships and diagnostics",
	}, s.handleParseAnnotation)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_entity",
		Description: "Retrieve one entity or article from the document graph",
	}, s.handleGetEntity)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "show_relationships",
		Description: "List relationships with the named entity at either end",
	}, s.handleShowRelationships)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_entities",
		Description: "List the sorted names of an entity type",
	}, s.handleListEntities)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_entities",
		Description: "Full-text search over entity names, synonyms, tags and notes",
	}, s.handleSearchEntities)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "inspect_graph",
		Description: "Count every collection and relationship kind of the document graph",
	}, s.handleInspectGraph)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "export_cypher",
		Description: "Render the document graph as a Cypher script",
	}, s.handleExportCypher)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_schema",
		Description: "Return the entity and relationship types of the tag language",
	}, s.handleGetSchema)
}

func (s *Server) handleParseAnnotation(ctx context.Context, req *sdk.CallToolRequest, input ParseAnnotationInput) (*sdk.CallToolResult, ParseAnnotationOutput, error) {
	if input.Text == "" {
		return nil, ParseAnnotationOutput{}, fmt.Errorf("text is required")
	}
	delimiter := input.Delimiter
	if delimiter == "" {
		delimiter = config.TagDelimiter
	}

	// Parser state accumulates, so every call gets its own.
	p := parser.New(s.schema, parser.NewGrammar(s.schema))
	p.Parse(input.Text, delimiter)

	out := ParseAnnotationOutput{
		Entities: []ParsedEntityOutput{},
		Warnings: p.Warnings,
		Errors:   p.Errors,
	}
	for _, entityType := range s.schema.EntityTypes {
		for _, name := range p.Catalog(entityType.Header) {
			entity, _ := p.Get(entityType.Header, name)
			out.Entities = append(out.Entities, s.parsedEntityOutput(entityType.Name, name, entity))
		}
	}
	return nil, out, nil
}

func (s *Server) parsedEntityOutput(kind, name string, entity *parser.Entity) ParsedEntityOutput {
	out := ParsedEntityOutput{
		Type:          kind,
		Name:          name,
		URLs:          entity.URLs,
		Labels:        entity.Labels,
		Tags:          entity.Tags,
		Notes:         entity.Notes,
		Synonyms:      entity.Synonyms,
		Relationships: make([]RelationOutput, 0, len(entity.Relationships)),
	}
	for _, rel := range entity.Relationships {
		relType := rel.Marker
		if rt, ok := s.schema.RelationshipTypeByMarker(rel.Marker); ok {
			relType = rt.Name
		}
		out.Relationships = append(out.Relationships, RelationOutput{Type: relType, Target: rel.Partner})
	}
	return out
}

func (s *Server) handleGetEntity(ctx context.Context, req *sdk.CallToolRequest, input GetEntityInput) (*sdk.CallToolResult, EntityOutput, error) {
	if input.Type == "" || input.Name == "" {
		return nil, EntityOutput{}, fmt.Errorf("type and name are required")
	}
	db, err := s.graph.LoadGraph(ctx)
	if err != nil {
		return nil, EntityOutput{}, err
	}

	if input.Type == config.Article {
		article, err := db.GetArticle(input.Name)
		if err != nil {
			return nil, EntityOutput{}, err
		}
		out := EntityOutput{Type: config.Article, Name: input.Name}
		for _, field := range article.Metadata {
			out.Metadata = append(out.Metadata, MetadataOutput{Name: field.Name, Value: field.Value})
		}
		return nil, out, nil
	}

	entity, err := db.Get(input.Type, input.Name)
	if err != nil {
		return nil, EntityOutput{}, err
	}
	return nil, entityOutputFromGraph(input.Type, input.Name, entity), nil
}

func (s *Server) handleShowRelationships(ctx context.Context, req *sdk.CallToolRequest, input ShowRelationshipsInput) (*sdk.CallToolResult, ShowRelationshipsOutput, error) {
	if input.Type == "" || input.Name == "" {
		return nil, ShowRelationshipsOutput{}, fmt.Errorf("type and name are required")
	}
	db, err := s.graph.LoadGraph(ctx)
	if err != nil {
		return nil, ShowRelationshipsOutput{}, err
	}
	view, err := db.ShowRelationships(input.Type, input.Name)
	if err != nil {
		return nil, ShowRelationshipsOutput{}, err
	}

	out := ShowRelationshipsOutput{Relationships: []KindPairsOutput{}}
	for _, kp := range view.Relationships {
		if len(kp.Pairs) == 0 {
			continue
		}
		out.Relationships = append(out.Relationships, KindPairsOutput{Type: kp.Kind, Pairs: pairOutputs(kp.Pairs)})
	}
	return nil, out, nil
}

func (s *Server) handleListEntities(ctx context.Context, req *sdk.CallToolRequest, input ListEntitiesInput) (*sdk.CallToolResult, ListEntitiesOutput, error) {
	if input.Type == "" {
		return nil, ListEntitiesOutput{}, fmt.Errorf("type is required")
	}
	db, err := s.graph.LoadGraph(ctx)
	if err != nil {
		return nil, ListEntitiesOutput{}, err
	}
	names, err := db.Catalog(input.Type)
	if err != nil {
		return nil, ListEntitiesOutput{}, err
	}
	return nil, ListEntitiesOutput{Names: names}, nil
}

func (s *Server) handleSearchEntities(ctx context.Context, req *sdk.CallToolRequest, input SearchEntitiesInput) (*sdk.CallToolResult, SearchEntitiesOutput, error) {
	if input.Query == "" {
		return nil, SearchEntitiesOutput{}, fmt.Errorf("query is required")
	}
	if s.searcher == nil {
		return nil, SearchEntitiesOutput{}, fmt.Errorf("search requires a snapshot store")
	}
	results, err := s.searcher.Search(ctx, input.Query, input.Snapshot, input.Type)
	if err != nil {
		return nil, SearchEntitiesOutput{}, err
	}

	output := make([]SearchResultOutput, 0, len(results))
	for _, result := range results {
		output = append(output, searchResultOutputFromStore(result))
	}
	return nil, SearchEntitiesOutput{Results: output}, nil
}

func (s *Server) handleInspectGraph(ctx context.Context, req *sdk.CallToolRequest, input InspectGraphInput) (*sdk.CallToolResult, InspectGraphOutput, error) {
	db, err := s.graph.LoadGraph(ctx)
	if err != nil {
		return nil, InspectGraphOutput{}, err
	}
	in := db.Inspect(input.List...)
	return nil, InspectGraphOutput{
		Collections:   countOutputs(in.Collections),
		Relationships: countOutputs(in.Relationships),
	}, nil
}

func (s *Server) handleExportCypher(ctx context.Context, req *sdk.CallToolRequest, input ExportCypherInput) (*sdk.CallToolResult, ExportCypherOutput, error) {
	db, err := s.graph.LoadGraph(ctx)
	if err != nil {
		return nil, ExportCypherOutput{}, err
	}
	statements := export.Cypher(db)
	return nil, ExportCypherOutput{Statements: len(statements), Text: export.Text(statements)}, nil
}

func (s *Server) handleGetSchema(ctx context.Context, req *sdk.CallToolRequest, input GetSchemaInput) (*sdk.CallToolResult, SchemaOutput, error) {
	return nil, schemaOutputFromConfig(s.schema), nil
}

func schemaOutputFromConfig(schema *config.Schema) SchemaOutput {
	if schema == nil {
		return SchemaOutput{}
	}

	out := SchemaOutput{
		EntityTypes:       make([]EntityTypeOutput, 0, len(schema.EntityTypes)),
		RelationshipTypes: make([]RelationshipTypeOutput, 0, len(schema.RelationshipTypes)),
		AgentLabels:       config.AgentLabelNames,
	}
	for _, entityType := range schema.EntityTypes {
		out.EntityTypes = append(out.EntityTypes, EntityTypeOutput{
			Name:   entityType.Name,
			Header: entityType.Header,
			Label:  entityType.Label,
			Fields: entityType.Fields,
		})
	}
	for _, rel := range schema.RelationshipTypes {
		out.RelationshipTypes = append(out.RelationshipTypes, RelationshipTypeOutput{
			Name:   rel.Name,
			Marker: rel.Marker,
			Source: rel.Source,
			Target: rel.Target,
		})
	}
	return out
}

func entityOutputFromGraph(kind, name string, entity *graphdb.Entity) EntityOutput {
	return EntityOutput{
		Type:     kind,
		Name:     name,
		URLs:     append([]string{}, entity.URLs...),
		Labels:   append([]string{}, entity.Labels...),
		Tags:     append([]string{}, entity.Tags...),
		Notes:    append([]string{}, entity.Notes...),
		Synonyms: append([]string{}, entity.Synonyms...),
	}
}

func pairOutputs(pairs []graphdb.Pair) []PairOutput {
	out := make([]PairOutput, 0, len(pairs))
	for _, pair := range pairs {
		out = append(out, PairOutput{Source: pair.Source, Target: pair.Target})
	}
	return out
}

func countOutputs(counts []graphdb.Count) []CountOutput {
	out := make([]CountOutput, 0, len(counts))
	for _, c := range counts {
		out = append(out, CountOutput{Name: c.Name, Count: c.Count, Items: c.Items})
	}
	return out
}

func searchResultOutputFromStore(result store.SearchResult) SearchResultOutput {
	return SearchResultOutput{
		Snapshot: result.Label,
		Name:     result.Name,
		Type:     result.EntityType,
		Tags:     append([]string{}, result.Tags...),
		Score:    result.Score,
		Snippet:  result.Snippet,
	}
}
