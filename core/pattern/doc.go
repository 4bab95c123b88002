// Package pattern compiles path templates with {name} placeholders into
// matchers that validate and decode path parameters.
//
// Each placeholder is validated against a regular expression derived from
// the declared parameter type unless the parameter supplies its own:
//
//	int    ^[-+]?[0-9]+$
//	float  ^[-+]?[0-9]+\.[0-9]+$
//	bool   ^(0|1|no?|y(es)?|false|true)$
//	string ^[^/]+$
//
// Usage:
//
//	t, err := pattern.Compile("/users/{id}/files/{name}", []pattern.Param{
//		{Name: "id", Type: pattern.Int},
//		{Name: "name", Type: pattern.String},
//	})
//	if err != nil {
//		return err
//	}
//	ok, params := t.Match("/users/42/files/report.pdf")
//	// ok == true, params == map[id:42 name:report.pdf]
//
// Placeholders must be separated by at least one literal character; a
// template like "/{a}{b}" is rejected at compile time. A captured segment
// is never empty.
package pattern
