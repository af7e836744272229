// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("analysis/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = output.Save(ctx, store, "dimuon.cfoa", result)
//
// # Features
//
//   - Multipart uploads for large outputs
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
