// Package stream reassembles newline-delimited JSON records from a
// long-lived, arbitrarily chunked HTTP response body.
//
// A Framer is fed raw chunks in arrival order and exposes the records each
// chunk completed. It knows nothing about HTTP, authentication or the
// record schema; Dispatch decodes a record and hands it to a Handler.
//
//	f := stream.NewFramer()
//	for {
//	    n, err := body.Read(buf)
//	    if f.Feed(buf[:n]) {
//	        for _, rec := range f.Records() {
//	            _ = stream.Dispatch(rec, ok, handler)
//	        }
//	    }
//	    if err != nil {
//	        break
//	    }
//	}
//
// A Framer is owned by the single goroutine reading the connection and
// must not be shared.
package stream
