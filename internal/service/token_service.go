package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"daicho/internal/config"
	"daicho/internal/domain"
)

// ArtifactClaims is the JWT payload of an artifact download token. The
// storage coordinates travel inside the token, so a download needs no
// database lookup.
type ArtifactClaims struct {
	jwt.RegisteredClaims
	RunID       uuid.UUID           `json:"run_id"`
	Kind        domain.ArtifactKind `json:"kind"`
	FileName    string              `json:"file_name"`
	ContentType string              `json:"content_type"`
	S3Bucket    string              `json:"s3_bucket"`
	S3Key       string              `json:"s3_key"`
}

// TokenService signs and verifies artifact download tokens.
type TokenService interface {
	IssueArtifactToken(artifact *domain.Artifact) (string, time.Time, error)
	ValidateArtifactToken(tokenString string, artifactID uuid.UUID) (*ArtifactClaims, error)
}

type tokenService struct {
	cfg config.JWTConfig
}

// NewTokenService creates a new TokenService implementation.
func NewTokenService(cfg config.JWTConfig) TokenService {
	return &tokenService{cfg: cfg}
}

func (s *tokenService) IssueArtifactToken(artifact *domain.Artifact) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(s.cfg.ArtifactExpiry)

	claims := &ArtifactClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   artifact.ID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{"artifact"},
		},
		RunID:       artifact.RunID,
		Kind:        artifact.Kind,
		FileName:    artifact.FileName,
		ContentType: artifact.ContentType,
		S3Bucket:    artifact.S3Bucket,
		S3Key:       artifact.S3Key,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing artifact token: %w", err)
	}
	return signed, expiry, nil
}

// ValidateArtifactToken checks the signature, the audience and that the
// token was minted for the artifact being requested.
func (s *tokenService) ValidateArtifactToken(tokenString string, artifactID uuid.UUID) (*ArtifactClaims, error) {
	claims := &ArtifactClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	aud, _ := claims.GetAudience()
	found := false
	for _, a := range aud {
		if a == "artifact" {
			found = true
			break
		}
	}
	if !found {
		return nil, domain.ErrInvalidToken
	}

	if claims.Subject != artifactID.String() {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
