package service

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	postRepo "anoa.com/karmafeed/internal/modules/post/repository"
	"anoa.com/karmafeed/pkg/apperror"
	"github.com/google/uuid"
)

func encodeCursor(c postRepo.FeedCursor) string {
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (*postRepo.FeedCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", apperror.ErrBadRequest)
	}

	stamp, id, ok := strings.Cut(string(raw), "|")
	if !ok {
		return nil, fmt.Errorf("%w: malformed cursor", apperror.ErrBadRequest)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", apperror.ErrBadRequest)
	}
	postID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", apperror.ErrBadRequest)
	}

	return &postRepo.FeedCursor{CreatedAt: createdAt.UTC(), ID: postID}, nil
}
