// Package extractkit extracts structured records from free-form text. A
// declarative Schema lists named, typed, described fields; an injected
// Inferrer (usually an LLM) proposes values; the Extractor fills absent
// fields with a per-type sentinel and rejects the record when any attached
// Rule fails.
//
// # Basic Usage
//
// Declare the fields and run an extraction:
//
//	schema := extractkit.NewSchemaBuilder().
//	    String("leave_time", "When they are leaving. It's usually a numerical time of the day").
//	    StringList("cities_to_visit", "The cities the person is planning to visit").
//	    Integer("num_people", "The number of people on the vacation", extractkit.Positive()).
//	    MustBuild()
//
//	client, _ := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI})
//	inf := extractkit.NewPromptInferrer(extractkit.NewGenAIInvoker(client, nil), nil, extractkit.DefaultGeminiModel, nil)
//	x := extractkit.New(inf, extractkit.WithTimeout(30*time.Second))
//
//	res, err := x.Extract(ctx, "We leave at 9am with three friends to Lisbon.", schema)
//
// Struct declarations work too; the json tag names the field, desc describes
// it and extract lists rules:
//
//	type Vacation struct {
//	    LeaveTime string `json:"leave_time" desc:"When they are leaving"`
//	    NumPeople int    `json:"num_people" desc:"Number of travellers" extract:"positive"`
//	}
//	v, err := extractkit.ExtractInto[Vacation](ctx, x, text)
//
// # Sentinels
//
// A field the inferrer omits, returns as null or answers with a marker such as
// "unknown" or "N/A" is filled with its sentinel: "unknown" for strings, 0 for
// integers and an empty list for string lists. Field.Default overrides the
// sentinel. Rules are evaluated on the completed value, so a missing
// num_people with Positive attached is rejected. Result.Missing reports which
// fields were substituted.
//
// # Errors
//
// A failed rule yields *ValidationError naming the field and rule; it matches
// ErrValidation with errors.Is. Inferrer failures (network, auth, timeouts)
// are returned unchanged so callers can tell them apart.
//
// # Backends
//
// PromptInferrer renders a prompt template (Twig via stick, or plain
// placeholders) and sends it through an Invoker. GenAIInvoker and
// OpenAIInvoker talk to Gemini and OpenAI; WithRetry and NewCachingInvoker
// decorate any Invoker.
//
// # Dry runs
//
// Explain renders the prompt and estimates token usage and cost without
// calling the backend.
package extractkit
