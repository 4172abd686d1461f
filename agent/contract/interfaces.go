package contract

import "context"

// Classifier labels a text. Implementations never fail; they degrade to
// LabelUnknown (or IntentionUnknown for intentions).
type Classifier interface {
	Classify(ctx context.Context, text string, kind LabelKind) string
}

// Retriever returns listing documents similar to query. An empty result is valid.
type Retriever interface {
	Search(ctx context.Context, query string, k int) []Document
}

// Generator renders a prompt template against a hosted model.
type Generator interface {
	Complete(ctx context.Context, tmpl PromptTemplate) Completion
}

// PromptTemplate is a structured generation request. Vars are substituted into
// the template body registered under Name.
type PromptTemplate interface {
	Name() string
	Task() Task
	Vars() map[string]any
}

type CustomerRepository interface {
	FindLatestByName(ctx context.Context, name string) (CustomerRecord, bool, error)
	CreateCustomer(ctx context.Context, in NewCustomer) (int64, error)
	UpdateLatestInteraction(ctx context.Context, in InteractionUpdate) (int64, error)
	ListCustomers(ctx context.Context) ([]CustomerRecord, error)
}

type ProductCatalog interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

// ExportSink appends a row to an external log. Callers treat errors as non-fatal.
type ExportSink interface {
	AppendRow(ctx context.Context, fields []string) error
}
