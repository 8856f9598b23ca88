package dom

import _ "embed"

// indexScript is the in-page traversal script evaluated once per
// detection pass.
//
//go:embed script/index.js
var indexScript string

// IndexScript returns the embedded indexing script.
func IndexScript() string {
	return indexScript
}

// removeHighlightsScript clears overlay markers and index attributes left
// by a previous pass. Kept separate from the indexing script so highlights
// can be removed without re-indexing.
const removeHighlightsScript = `(args) => {
  const container = document.getElementById(args.containerId);
  if (container) container.remove();
  const marked = document.querySelectorAll('[' + args.indexAttribute + ']');
  for (const el of marked) el.removeAttribute(args.indexAttribute);
  return marked.length;
}`
