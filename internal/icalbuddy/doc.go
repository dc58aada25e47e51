// Package icalbuddy turns the plaintext printed by the icalBuddy calendar
// tool into model.Event values, and runs the tool to obtain that text.
//
// Parsing is best effort. Fragments that lack a title/datetime pair or whose
// start cannot be resolved are dropped without an error; Stats reports how
// many were dropped so callers can surface it elsewhere.
//
// Example:
//
//	out, err := exporter.Export(ctx, false)
//	if err != nil {
//	    return err
//	}
//	events := icalbuddy.ParseOutput(out, false)
//	events = icalbuddy.FilterByKeywords(events, cfg.Calendar.ExcludeKeywords)
package icalbuddy
