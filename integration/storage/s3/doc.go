// Package s3 serves objects from Amazon S3 and S3-compatible services
// (MinIO, DigitalOcean Spaces, Wasabi) through the byte-range responder.
//
//	bucket, err := s3.New(ctx, s3.Config{
//		Bucket: "assets",
//		Region: "us-east-1",
//	})
//	if err != nil {
//		return err
//	}
//
//	// GET /media/img/logo.png streams key "img/logo.png"
//	r.Get("/media/{key}", bucket.Entry("key"))
//
// Range requests are forwarded to S3 as ranged GETs, so only the requested
// bytes leave the bucket. Credentials fall back to the default AWS chain
// (environment, shared config, IAM role) when AccessKeyID is empty.
package s3
