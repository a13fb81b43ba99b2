package storage

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// azureBlobHostSuffix identifies URLs served by Azure Blob Storage
const azureBlobHostSuffix = ".blob.core.windows.net"

// AzureImageFetcher implements ImageFetcher for private blob containers
type AzureImageFetcher struct {
	client   *azblob.Client
	maxBytes int64
}

// NewAzureImageFetcher creates a fetcher authenticated with a shared key
func NewAzureImageFetcher(accountName, accountKey string, maxBytes int64) (*AzureImageFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s%s", accountName, azureBlobHostSuffix),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &AzureImageFetcher{client: client, maxBytes: maxBytes}, nil
}

// FetchImage downloads and decodes a blob
func (s *AzureImageFetcher) FetchImage(ctx context.Context, blobURL string) (image.Image, error) {
	containerName, blobName, err := ParseBlobURL(blobURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: download failed: %w", ErrFetchFailed, err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	img, _, err := DecodeImage(retryReader, s.maxBytes)
	return img, err
}

// ParseBlobURL splits https://<account>.blob.core.windows.net/<container>/<blob>
// into container and blob name. The legacy ?blob=<name> form is accepted
// with the container as the whole path.
func ParseBlobURL(blobURL string) (container, blob string, err error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}

	path := strings.Trim(parsedURL.Path, "/")
	if name := parsedURL.Query().Get("blob"); name != "" && path != "" {
		return path, name, nil
	}

	container, blob, ok := strings.Cut(path, "/")
	if !ok || container == "" || blob == "" {
		return "", "", fmt.Errorf("blob URL %q has no container/blob path", blobURL)
	}
	return container, blob, nil
}

// IsAzureBlobURL reports whether the URL points at Azure Blob Storage
func IsAzureBlobURL(rawURL string) bool {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(parsedURL.Hostname()), azureBlobHostSuffix)
}

// RoutingFetcher sends blob storage URLs to an authenticated Azure fetcher
// and everything else over HTTP
type RoutingFetcher struct {
	http  ImageFetcher
	azure ImageFetcher
}

// NewRoutingFetcher creates a routing fetcher; azure may be nil, in which
// case blob URLs are fetched anonymously over HTTP
func NewRoutingFetcher(httpFetcher, azureFetcher ImageFetcher) *RoutingFetcher {
	return &RoutingFetcher{http: httpFetcher, azure: azureFetcher}
}

// FetchImage implements ImageFetcher
func (f *RoutingFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	if f.azure != nil && IsAzureBlobURL(imageURL) {
		return f.azure.FetchImage(ctx, imageURL)
	}
	return f.http.FetchImage(ctx, imageURL)
}
