package ai

import "github.com/tributolabs/fiscalis/internal/types"

// defaultSourceTitle labels citations whose provider metadata carried no
// title.
const defaultSourceTitle = "Official source"

// normalizeSources maps raw citation chunks into the deduplicated source
// list. Chunks without a URI are dropped. Order follows the first
// observation of each URI; a later chunk for the same URI overwrites the
// title and snippet, but only with values it actually carries.
func normalizeSources(chunks []CitationChunk) []types.Source {
	sources := make([]types.Source, 0, len(chunks))
	index := make(map[string]int, len(chunks))

	for _, chunk := range chunks {
		if chunk.URI == "" {
			continue
		}

		if i, seen := index[chunk.URI]; seen {
			if chunk.Title != "" {
				sources[i].Title = chunk.Title
			}
			if chunk.Snippet != "" {
				sources[i].Snippet = chunk.Snippet
			}
			continue
		}

		title := chunk.Title
		if title == "" {
			title = defaultSourceTitle
		}
		index[chunk.URI] = len(sources)
		sources = append(sources, types.Source{
			Title:   title,
			URI:     chunk.URI,
			Snippet: chunk.Snippet,
		})
	}
	return sources
}
