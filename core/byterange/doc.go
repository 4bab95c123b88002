// Package byterange implements single-range HTTP partial content.
//
// Parse validates a Range header against the resource size. Serve turns the
// result into a 206 response with Content-Range, or a 200 response carrying
// the whole resource when the header is absent or invalid. Invalid ranges are
// never reported to the client.
//
// Bodies are produced by Chunks, a lazy iter.Seq2 that opens the Source,
// seeks, reads in 64 KiB pieces and always closes the handle:
//
//	src := byterange.SourceFunc(func(ctx context.Context) (io.ReadSeekCloser, error) {
//		return os.Open(path)
//	})
//	resp := byterange.Serve(ctx, src, info.Size(), r.Header.Get("Range"))
//
// Multipart byte ranges are not supported.
package byterange
