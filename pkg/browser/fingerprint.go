package browser

import (
	"fmt"
	"hash/fnv"

	"github.com/playwright-community/playwright-go"

	"github.com/sentrahq/sentra/pkg/dom"
)

// structureSampleScript collects tag#id.class for the first sampleSize
// elements. Deliberately approximate: it catches gross structural swaps
// cheaply, it is not collision-free.
const structureSampleScript = `(args) => {
	const parts = [];
	const all = document.getElementsByTagName('*');
	const limit = Math.min(all.length, args.sampleSize);
	for (let i = 0; i < limit; i++) {
		const el = all[i];
		if (el.id === args.containerId || el.closest('#' + args.containerId)) continue;
		let part = el.tagName.toLowerCase();
		if (el.id) part += '#' + el.id;
		if (typeof el.className === 'string' && el.className) {
			part += '.' + el.className.trim().split(/\s+/).slice(0, 3).join('.');
		}
		parts.push(part);
	}
	return parts.join('|');
}`

// contentSampleScript takes the cheap sample the freshness poll compares:
// a head of the visible text plus a count of interactive elements. The
// highlight overlay and its labels are excluded so the detector never
// reacts to the indexer's own artifacts.
const contentSampleScript = `(args) => {
	const container = document.getElementById(args.containerId);
	const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT, {
		acceptNode: (node) => {
			const parent = node.parentElement;
			if (!parent) return NodeFilter.FILTER_REJECT;
			if (container && container.contains(parent)) return NodeFilter.FILTER_REJECT;
			const style = window.getComputedStyle(parent);
			if (style.display === 'none' || style.visibility === 'hidden') {
				return NodeFilter.FILTER_REJECT;
			}
			return NodeFilter.FILTER_ACCEPT;
		}
	});
	const texts = [];
	let total = 0;
	let node;
	while ((node = walker.nextNode()) && total < args.textLimit) {
		const text = node.textContent.trim();
		if (text.length > 0) {
			texts.push(text);
			total += text.length;
		}
	}
	const interactive = document.querySelectorAll(
		'a, button, input, select, textarea, [role="button"], [role="link"], [onclick]'
	).length;
	return { text: texts.join(' ').substring(0, args.textLimit), interactive: interactive };
}`

// elementCountScript counts element nodes outside the overlay.
const elementCountScript = `(args) => {
	const container = document.getElementById(args.containerId);
	let count = 0;
	for (const el of document.getElementsByTagName('*')) {
		if (container && container.contains(el)) continue;
		count++;
	}
	return count;
}`

// hashStructure reduces a structure sample string to a 64-bit FNV-1a
// fingerprint.
func hashStructure(sample string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(sample))
	return h.Sum64()
}

// Fingerprint computes the page's structural hash from a bounded sample of
// its elements. Evaluation failures (mid-navigation, closed page) return
// an error; callers keep their previous hash instead.
func Fingerprint(page playwright.Page, sampleSize int) (uint64, error) {
	result, err := page.Evaluate(structureSampleScript, map[string]interface{}{
		"sampleSize":  sampleSize,
		"containerId": dom.HighlightContainerID,
	})
	if err != nil {
		return 0, fmt.Errorf("structure sample failed: %w", err)
	}

	sample, ok := result.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected structure sample type %T", result)
	}
	return hashStructure(sample), nil
}

// contentSample is the poll's cheap change probe.
type contentSample struct {
	Text        string
	Interactive int
}

// sampleContent captures a content sample, guarded: any failure yields a
// zero sample and the error for the caller to log.
func sampleContent(page playwright.Page, textLimit int) (contentSample, error) {
	result, err := page.Evaluate(contentSampleScript, map[string]interface{}{
		"containerId": dom.HighlightContainerID,
		"textLimit":   textLimit,
	})
	if err != nil {
		return contentSample{}, fmt.Errorf("content sample failed: %w", err)
	}

	m, ok := result.(map[string]interface{})
	if !ok {
		return contentSample{}, fmt.Errorf("unexpected content sample type %T", result)
	}

	sample := contentSample{}
	if s, ok := m["text"].(string); ok {
		sample.Text = s
	}
	switch v := m["interactive"].(type) {
	case int:
		sample.Interactive = v
	case float64:
		sample.Interactive = int(v)
	}
	return sample, nil
}

// sampleDiffers reports whether two content samples differ enough to be
// worth a full state refresh. Small text churn (ticking clocks, counters)
// is ignored; an interactive-count change always counts.
func sampleDiffers(prev, next contentSample) bool {
	if prev.Interactive != next.Interactive {
		return true
	}
	if prev.Text == next.Text {
		return false
	}

	// Require a meaningful text delta, not a few characters of churn.
	diff := len(next.Text) - len(prev.Text)
	if diff < 0 {
		diff = -diff
	}
	if diff > 50 {
		return true
	}

	// Same-ish length: significant only if the texts diverge early, which
	// marks replaced content rather than an updated counter.
	shorter := min(len(prev.Text), len(next.Text))
	if shorter == 0 {
		return false
	}
	common := commonPrefixLen(prev.Text, next.Text)
	return common*10 < shorter*9
}

// commonPrefixLen returns the length of the shared prefix of two strings.
func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// countElements returns the element count outside the overlay, or the
// fallback on any failure.
func countElements(page playwright.Page, fallback int) int {
	result, err := page.Evaluate(elementCountScript, map[string]interface{}{
		"containerId": dom.HighlightContainerID,
	})
	if err != nil {
		return fallback
	}
	switch v := result.(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
