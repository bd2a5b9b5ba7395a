// Package cloudtasks is a queue.Transport over the Google Cloud Tasks REST API
// (google.golang.org/api/cloudtasks/v2).
//
// Every task becomes an HTTP-target task that POSTs the base64 envelope to
// TargetURL/{queue}, where a taskhttp router decodes it and runs the registered
// handler. Cloud Tasks rejects a task name that already exists (or existed recently)
// with HTTP 409; the transport reports that as queue.ErrTaskAlreadyExists so the
// submitter treats it as success.
//
//	var cfg cloudtasks.Config
//	config.MustLoad(&cfg)
//
//	transport, err := cloudtasks.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	client, err := queue.NewClient(transport, registry, queue.WithLocation(project, region))
package cloudtasks
