package integration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/config"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/tests/testutil"
)

// UploadTestSuite is the test suite for the upload and retrieval endpoints
type UploadTestSuite struct {
	suite.Suite
	server *testutil.TestServer
}

// SetupSuite runs once before all tests
func (s *UploadTestSuite) SetupSuite() {
	s.server = testutil.NewTestServer(s.T(), func(cfg *config.Config) {
		cfg.RateLimit.DownloadRequests = 3
		cfg.RateLimit.DownloadWindow = time.Minute
	})
}

// SetupTest runs before each test
func (s *UploadTestSuite) SetupTest() {
	s.server.Cleanup(s.T())
}

func TestUploadSuite(t *testing.T) {
	// Skip if not running integration tests
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration tests. Set INTEGRATION_TEST=true to run.")
	}
	suite.Run(t, new(UploadTestSuite))
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *UploadTestSuite) initiate(hash string, size int) *testutil.HTTPResponse {
	return testutil.DoRequest(s.T(), s.server.Echo, testutil.HTTPRequest{
		Method: http.MethodPost,
		Path:   "/files/large",
		Body: map[string]interface{}{
			"contentHash": hash,
			"size":        size,
		},
	})
}

func (s *UploadTestSuite) uploadPart(hash, uploadID string, partNumber int, data []byte) string {
	resp := testutil.DoRequest(s.T(), s.server.Echo, testutil.HTTPRequest{
		Method: http.MethodPost,
		Path:   "/files/large/part",
		Body: map[string]interface{}{
			"contentHash": hash,
			"uploadId":    uploadID,
			"partNumber":  partNumber,
			"bytes":       data,
		},
	})
	resp.AssertStatus(http.StatusOK)
	return resp.GetJSONData()["eTag"].(string)
}

func (s *UploadTestSuite) finish(hash, uploadID string, etags ...string) *testutil.HTTPResponse {
	parts := make([]map[string]interface{}, 0, len(etags))
	for i, etag := range etags {
		parts = append(parts, map[string]interface{}{"partNumber": i + 1, "eTag": etag})
	}
	return testutil.DoRequest(s.T(), s.server.Echo, testutil.HTTPRequest{
		Method: http.MethodPatch,
		Path:   "/files/large/finish",
		Body: map[string]interface{}{
			"contentHash": hash,
			"uploadId":    uploadID,
			"parts":       parts,
		},
	})
}

// =============================================================================
// Multipart upload
// =============================================================================

func (s *UploadTestSuite) TestLargeUpload_PersistsLedger() {
	content := []byte("postgres backed multipart upload")
	hash := hashOf(content)

	resp := s.initiate(hash, len(content))
	resp.AssertStatus(http.StatusCreated).
		AssertJSONPath("data.file.mimeType", "application/octet-stream")
	uploadID := resp.GetJSONData()["file"].(map[string]interface{})["uploadId"].(string)

	etag1 := s.uploadPart(hash, uploadID, 1, content[:10])
	etag2 := s.uploadPart(hash, uploadID, 2, content[10:])

	var parts int
	err := s.server.Pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM upload_parts WHERE upload_id = $1", uploadID).Scan(&parts)
	s.Require().NoError(err)
	s.Equal(2, parts)

	s.finish(hash, uploadID, etag1, etag2).
		AssertStatus(http.StatusOK).
		AssertJSONPath("data.finished", true)

	var finished bool
	err = s.server.Pool.QueryRow(context.Background(),
		"SELECT finished FROM file_records WHERE content_hash = $1", hash).Scan(&finished)
	s.Require().NoError(err)
	s.True(finished)

	err = s.server.Pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM upload_parts WHERE upload_id = $1", uploadID).Scan(&parts)
	s.Require().NoError(err)
	s.Zero(parts)
}

func (s *UploadTestSuite) TestLargeUpload_ConcurrentInitiateCreatesOneSession() {
	content := []byte("concurrent initiate")
	hash := hashOf(content)

	const callers = 8
	uploadIDs := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := s.initiate(hash, len(content))
			file := resp.GetJSONData()["file"].(map[string]interface{})
			uploadIDs[i] = file["uploadId"].(string)
		}(i)
	}
	wg.Wait()

	for _, id := range uploadIDs {
		s.Equal(uploadIDs[0], id)
	}
	s.Equal(1, s.server.BlobStore.OpenSessions())
}

func (s *UploadTestSuite) TestLargeUpload_FinishIsIdempotent() {
	content := []byte("finish twice")
	hash := hashOf(content)

	uploadID := s.initiate(hash, len(content)).
		GetJSONData()["file"].(map[string]interface{})["uploadId"].(string)
	etag := s.uploadPart(hash, uploadID, 1, content)

	first := s.finish(hash, uploadID, etag).AssertStatus(http.StatusOK).GetJSONData()
	second := s.finish(hash, uploadID, etag).AssertStatus(http.StatusOK).GetJSONData()

	s.Equal(first["publicId"], second["publicId"])
}

func (s *UploadTestSuite) TestLedger_CreateFinished_LeavesFinishedRecordUntouched() {
	ctx := context.Background()
	repo := s.server.Container.FileRecordRepo
	hash := valueobject.ComputeContentHash([]byte("finished once"))

	first, err := entity.NewFinishedFileRecord(hash, 13, valueobject.MimeTypeTextPlain)
	s.Require().NoError(err)
	stored, err := repo.CreateFinished(ctx, first)
	s.Require().NoError(err)

	second, err := entity.NewFinishedFileRecord(hash, 99, valueobject.MimeTypeOctetStream)
	s.Require().NoError(err)
	again, err := repo.CreateFinished(ctx, second)
	s.Require().NoError(err)

	s.Equal(stored.ID, again.ID)
	s.True(again.Finished)
	s.Equal(int64(13), again.Size)
	s.True(stored.UpdatedAt.Equal(again.UpdatedAt))
}

// =============================================================================
// Retrieval
// =============================================================================

func (s *UploadTestSuite) TestDownload_ServedFromCacheAfterFinish() {
	content := []byte("cached record")
	hash := hashOf(content)

	body, contentType := testutil.MultipartFile(s.T(), "file", "c.bin", "application/octet-stream", content)
	publicID := testutil.DoRequest(s.T(), s.server.Echo, testutil.HTTPRequest{
		Method:      http.MethodPost,
		Path:        "/files/small",
		RawBody:     body,
		ContentType: contentType,
	}).AssertStatus(http.StatusCreated).GetJSONData()["publicId"].(string)

	testutil.DoRequest(s.T(), s.server.Echo, testutil.HTTPRequest{
		Method:     http.MethodGet,
		Path:       "/files/" + publicID,
		RemoteAddr: "10.0.0.1:1234",
	}).AssertStatus(http.StatusOK)

	// 完了済みレコードはRedisにキャッシュされます
	n, err := s.server.Redis.Exists(context.Background(), "cache:file:hash:"+hash).Result()
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	key := valueobject.NewStorageKey(s.server.Config.Storage.KeyPrefix, valueobject.ReconstructContentHash(hash))
	s.server.BlobStore.Delete(key.Value())

	testutil.DoRequest(s.T(), s.server.Echo, testutil.HTTPRequest{
		Method:     http.MethodGet,
		Path:       "/files/" + publicID,
		RemoteAddr: "10.0.0.1:1234",
	}).AssertStatus(http.StatusInternalServerError).
		AssertJSONError("RETRIEVAL_ERROR", "")
}

func (s *UploadTestSuite) TestDownload_RateLimited() {
	for i := 0; i < 3; i++ {
		testutil.DoRequest(s.T(), s.server.Echo, testutil.HTTPRequest{
			Method:     http.MethodGet,
			Path:       "/files/not-a-uuid",
			RemoteAddr: "10.0.0.2:1234",
		}).AssertStatus(http.StatusNotFound)
	}

	testutil.DoRequest(s.T(), s.server.Echo, testutil.HTTPRequest{
		Method:     http.MethodGet,
		Path:       "/files/not-a-uuid",
		RemoteAddr: "10.0.0.2:1234",
	}).AssertStatus(http.StatusTooManyRequests).
		AssertJSONError("RATE_LIMIT_EXCEEDED", "")
}
