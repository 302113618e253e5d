package iob

// Entity is the text of a span, with its offsets.
type Entity struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// ExtractWithOffsets groups the text of the document's spans by label, in spans order, keeping
// their offsets. Zero-length spans yield an empty text.
//
// Map iteration order is random: callers must not rely on the order of labels.
// It returns a *ValidationError if a span doesn't fit the text.
func ExtractWithOffsets(doc Document) (map[string][]Entity, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	runes := []rune(doc.Text)
	entities := make(map[string][]Entity, len(doc.Spans))
	for _, span := range doc.Spans {
		entities[span.Label] = append(entities[span.Label], Entity{
			Start: span.Start,
			End:   span.End,
			Text:  string(runes[span.Start:span.End]),
		})
	}
	return entities, nil
}

// ExtractTexts is like ExtractWithOffsets, but only returns the texts.
func ExtractTexts(doc Document) (map[string][]string, error) {
	entities, err := ExtractWithOffsets(doc)
	if err != nil {
		return nil, err
	}
	texts := make(map[string][]string, len(entities))
	for label, list := range entities {
		texts[label] = make([]string, len(list))
		for i, e := range list {
			texts[label][i] = e.Text
		}
	}
	return texts, nil
}
