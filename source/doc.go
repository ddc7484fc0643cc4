// Package source fetches raw documents from the configured origins.
//
// Two loaders are provided:
//   - GitLoader clones repositories into a scratch directory and selects
//     files from the working tree by glob pattern.
//   - WebLoader fetches URLs over HTTP and extracts readable text from
//     the response body.
//
// Both yield documents lazily as iter.Seq2 sequences. A failure on one
// item is yielded as an error alongside a nil document and iteration
// continues with the next item, so a single bad file or unreachable URL
// never aborts the run.
package source
