// Package report stores benchmark reports.
//
// A destination is either a local path or an S3 URL:
//
//	report.json                 written to the local filesystem
//	s3://bucket/runs/today.json uploaded to bucket under runs/today.json
//	s3://bucket/runs/           uploaded under runs/ with a generated name
//
// S3 credentials come from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
// AWS_SESSION_TOKEN. AWS_REGION selects the region and AWS_ENDPOINT_URL_S3
// points the client at an S3-compatible service.
package report
