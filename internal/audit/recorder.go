// Package audit keeps the most recent login of each Google account.
package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/arjunbector/OmniSearch/internal/crypto"
	"github.com/arjunbector/OmniSearch/internal/model"
)

// RecordTTL is how long a login record is kept before DynamoDB expires it.
const RecordTTL = 90 * 24 * time.Hour

// ErrNotFound is returned when no login is recorded for a user.
var ErrNotFound = errors.New("login record not found")

// DynamoAPI is the subset of *dynamodb.Client used by Recorder.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Login is a decrypted login record.
type Login struct {
	UserID     string
	Email      string
	Scopes     []string
	LoggedInAt time.Time
}

// Recorder writes login records. A nil client keeps them in memory.
type Recorder struct {
	client    DynamoAPI
	tableName string
	encryptor crypto.Encryptor
	now       func() time.Time

	records map[string]model.LoginRecord
	mu      sync.RWMutex
}

// NewRecorder creates a Recorder for tableName.
func NewRecorder(client DynamoAPI, tableName string, encryptor crypto.Encryptor) *Recorder {
	return &Recorder{
		client:    client,
		tableName: tableName,
		encryptor: encryptor,
		now:       time.Now,
		records:   make(map[string]model.LoginRecord),
	}
}

// RecordLogin stores a login for userID, replacing the previous one.
func (r *Recorder) RecordLogin(ctx context.Context, userID, email string, scopes []string) error {
	if userID == "" {
		return fmt.Errorf("record login: empty user id")
	}

	encrypted, err := r.encryptor.Encrypt(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to encrypt email: %w", err)
	}

	now := r.now().UTC()
	rec := model.LoginRecord{
		UserID:         userID,
		EncryptedEmail: encrypted,
		Scopes:         scopes,
		LoggedInAt:     now,
		ExpiresAt:      now.Add(RecordTTL).Unix(),
	}

	if r.client == nil {
		r.mu.Lock()
		r.records[userID] = rec
		r.mu.Unlock()
		return nil
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal login record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save login record to DynamoDB: %w", err)
	}
	return nil
}

// LastLogin returns the most recent login recorded for userID.
func (r *Recorder) LastLogin(ctx context.Context, userID string) (*Login, error) {
	var rec model.LoginRecord

	if r.client == nil {
		r.mu.RLock()
		stored, ok := r.records[userID]
		r.mu.RUnlock()
		if !ok {
			return nil, ErrNotFound
		}
		rec = stored
	} else {
		out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"user_id": &types.AttributeValueMemberS{Value: userID},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get login record from DynamoDB: %w", err)
		}
		if out.Item == nil {
			return nil, ErrNotFound
		}
		if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal login record: %w", err)
		}
	}

	// DynamoDB deletes expired items lazily.
	if rec.ExpiresAt < r.now().Unix() {
		return nil, ErrNotFound
	}

	email, err := r.encryptor.Decrypt(ctx, rec.EncryptedEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt email: %w", err)
	}
	return &Login{
		UserID:     rec.UserID,
		Email:      email,
		Scopes:     rec.Scopes,
		LoggedInAt: rec.LoggedInAt,
	}, nil
}
