package remlint

import "fmt"

// Check reports problems with the task graph recorded in r:
//
//   - a document with statements but no tasks,
//   - a default task that is not declared,
//   - a dependency on a task that is not declared.
//
// Dependencies containing a ${...} placeholder are not checked.
// Check reports nothing for a document in which [Parse] recognized no
// headers or statements, and nothing beyond the missing tasks for a
// document without tasks.
func Check(doc *Document, r Result) []Diagnostic {
	if !r.Parsed {
		return nil
	}
	if len(r.Tasks) == 0 {
		return []Diagnostic{NewDiagnostic(doc, 0, 0, "Remfile has no tasks")}
	}

	var diags []Diagnostic
	if r.Default != "" {
		if _, ok := r.Tasks[r.Default]; !ok {
			msg := fmt.Sprintf(`default target "%s" does not match any defined task`, r.Default)
			diags = append(diags, NewDiagnostic(doc, 0, 0, msg))
		}
	}

	for _, name := range r.TaskOrder {
		line := r.Tasks[name]
		for _, dep := range r.Deps[name] {
			if dep == "" || IsPlaceholder(dep) {
				continue
			}
			if _, ok := r.Tasks[dep]; ok {
				continue
			}
			msg := fmt.Sprintf(`task "%s" depends on undefined task "%s"`, name, dep)
			diags = append(diags, NewDiagnostic(doc, line, doc.lineLength(line), msg))
		}
	}
	return diags
}
