// Package crawler loads a page and gathers its textual surface.
//
// # Components
//
//   - Fetcher: bounded HTTP GET with a body cap, charset decoding and
//     optional rate limiting. It also loads pages into a Page.
//   - Page: a parsed document plus the URL it was loaded from.
//   - Aggregator: turns a Page into ordered text blocks.
//
// # Text blocks
//
// Aggregate returns, in order:
//
//  1. the visible text of <body>, rendered roughly the way a browser's
//     innerText would (script, style, noscript, template and hidden
//     elements skipped, line breaks at block elements);
//  2. the bodies of all inline <script> elements joined by newlines;
//  3. one block per same-origin external script, in document order.
//
// Blocks with no text are omitted. Inline code is kept apart from visible
// text so a pattern never matches across the boundary between the two.
//
// # External scripts
//
// Script URLs are resolved against the document base URL, stripped of their
// fragment and deduplicated. A script is fetched only when its scheme, host
// and port equal the page's, with default ports filled in. Fetches run
// concurrently and settle independently: a non-2xx status, a transport error
// or a timeout drops that one script and nothing else. There are no retries.
//
// # Usage
//
//	fetcher := crawler.NewFetcher(httpClient, crawler.WithMaxBodySize(5<<20))
//	page, err := fetcher.Load(ctx, "https://example.com/")
//	blocks := crawler.NewAggregator(fetcher).Aggregate(ctx, page)
package crawler
