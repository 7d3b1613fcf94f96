package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/expertguide/expertguide-api/internal/domain"
)

// RoleRepo stores role membership, one record per user (PK: user_id).
// It replaces the per-role table scan of the original system with a single
// lookup; any backend that can answer FindRole/Assign satisfies the same
// contract.
type RoleRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRoleRepo(client *dynamodb.Client, tableName string) *RoleRepo {
	return &RoleRepo{client: client, tableName: tableName}
}

// FindRole returns the role name for userID, or domain.ErrNotFound when the
// user has no membership record.
func (r *RoleRepo) FindRole(ctx context.Context, userID string) (string, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return "", err
	}
	if out.Item == nil {
		return "", fmt.Errorf("role for user %s: %w", userID, domain.ErrNotFound)
	}
	var m domain.RoleMembership
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return "", err
	}
	return m.Role, nil
}

// Assign grants role to userID, replacing any previous membership.
func (r *RoleRepo) Assign(ctx context.Context, userID, role string) error {
	m := domain.RoleMembership{
		UserID:     userID,
		Role:       role,
		AssignedAt: time.Now().UTC().Format(time.RFC3339),
	}
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal role membership: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}
