// Package arango is an HTTP client for ArangoDB built around deferred
// request execution. Every API method produces a request/handler pair and
// hands it to an Execution, so the same call sites run in three modes:
// immediately against the server, queued on the server's job queue with the
// outcome polled through an AsyncJob, or collected client-side and flushed
// as one multipart batch whose BatchJobs resolve on Commit. Query results
// stream through a lazily paginated Cursor.
//
//	conn := arango.NewConnection(arango.Config{Host: "localhost", Port: 8529})
//	db := arango.NewDatabase(conn)
//
//	batch := db.Batch(true)
//	_, job, _ := batch.Collection("students").Insert(ctx, doc, nil)
//	if err := batch.Commit(ctx); err != nil {
//		return err
//	}
//	meta, err := arango.JobResult[arango.DocumentMeta](ctx, job)
package arango
