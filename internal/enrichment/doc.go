// Package enrichment upgrades filename-derived video metadata with data from
// the remote catalog.
//
// Resolved videos are submitted with Enqueue and looked up on a small worker
// pool. Each job checks freshness and the failed-lookup record, queries the
// catalog, runs the consistency Gate, links TV episodes to their series and
// writes everything through one store session. Failures never reach the
// caller: transient ones are logged and retried at the next opportunity,
// rejections are recorded so the file is not queried again until the failure
// window passes.
package enrichment
