// Package channel implements the strictly synchronous request/response
// exchange with a ready child.
//
// Requests are single lines written to the child's input and flushed
// immediately. Responses are single lines read from the child's output. The
// channel never pipelines, reorders or matches by content: the i-th response
// read belongs to the i-th request sent, and callers alternate Send and
// Receive.
//
//	ch := channel.New(log, obs, stdin, reader, channel.DefaultSuccessSuffix, 0)
//	for i, req := range requests {
//	    if err := ch.Send(ctx, req); err != nil {
//	        return err
//	    }
//	    resp, err := ch.Receive(ctx)
//	    ...
//	}
//	ch.Close()
package channel
