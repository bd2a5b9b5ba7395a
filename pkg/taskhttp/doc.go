// Package taskhttp executes tasks delivered over HTTP by a push service such as
// Cloud Tasks.
//
// The cloudtasks transport targets <base>/<queue>; Router serves the matching
// POST /{queue} routes and hands the decoded payload to the queue's Handler:
//
//	r := chi.NewRouter()
//	r.Mount("/tasks", taskhttp.Router([]queue.Handler{
//	    queue.NewTaskHandler("send_email", sendEmail),
//	}, taskhttp.WithLogger(log)))
//
// Handlers can read the delivery metadata (task name, retry count, ETA) with
// FromContext. A handler error yields a 500 so the push service retries the task;
// malformed bodies and payloads failing Validate yield a 422.
package taskhttp
