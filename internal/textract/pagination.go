package textract

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
)

const (
	DefaultMaxResults = 1000
	MaxMaxResults     = 1000
)

// paginate slices blocks for one poll. Tokens are bound to the job that issued
// them.
func paginate(jobID string, blocks []entity.Block, maxResults int, token string) ([]entity.Block, string, error) {
	if maxResults <= 0 || maxResults > MaxMaxResults {
		maxResults = DefaultMaxResults
	}
	offset := 0
	if token != "" {
		var err error
		if offset, err = decodeToken(jobID, token, len(blocks)); err != nil {
			return nil, "", err
		}
	}
	end := offset + maxResults
	if end >= len(blocks) {
		return blocks[offset:], "", nil
	}
	return blocks[offset:end], encodeToken(jobID, end), nil
}

func encodeToken(jobID string, offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(jobID + ":" + strconv.Itoa(offset)))
}

func decodeToken(jobID, token string, total int) (int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, common.BadRequestf("invalid NextToken")
	}
	s := string(raw)
	i := strings.LastIndexByte(s, ':')
	if i < 0 || s[:i] != jobID {
		return 0, common.BadRequestf("NextToken does not belong to job %s", jobID)
	}
	offset, err := strconv.Atoi(s[i+1:])
	if err != nil || offset < 0 || offset > total {
		return 0, common.BadRequestf("invalid NextToken")
	}
	return offset, nil
}
