package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-weather-auth/internal/domain"
)

// API is the subset of *dynamodb.Client the repositories use.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoDB attribute names used in key and update expressions.
const (
	attrUserID          = "user_id"
	attrEmail           = "email"
	attrPasswordHash    = "password_hash"
	attrEmailVerified   = "email_verified"
	attrResetCode       = "reset_code"
	attrResetCodeExpiry = "reset_code_expiry"
	attrVersion         = "version"
	attrUpdatedAt       = "updated_at"
)

// emailLock reserves an email address. Its table is keyed by email, which gives
// the uniqueness guarantee a GSI cannot.
type emailLock struct {
	Email  string `dynamodbav:"email"`
	UserID string `dynamodbav:"user_id"`
}

// UserRepo provides typed DynamoDB operations for the users table.
type UserRepo struct {
	client      API
	usersTable  string
	emailsTable string
	now         func() time.Time
}

func NewUserRepo(client API, usersTable, emailsTable string) *UserRepo {
	return &UserRepo{client: client, usersTable: usersTable, emailsTable: emailsTable, now: time.Now}
}

// Create writes the user and its email reservation in one transaction.
// A taken email fails with domain.ErrDuplicateEmail.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	lock, err := attributevalue.MarshalMap(emailLock{Email: u.Email, UserID: u.UserID})
	if err != nil {
		return fmt.Errorf("marshal email lock: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.usersTable),
				Item:                     item,
				ConditionExpression:      aws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: map[string]string{"#id": attrUserID},
			}},
			{Put: &types.Put{
				TableName:                aws.String(r.emailsTable),
				Item:                     lock,
				ConditionExpression:      aws.String("attribute_not_exists(#e)"),
				ExpressionAttributeNames: map[string]string{"#e": attrEmail},
			}},
		},
	})
	if err == nil {
		return nil
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) && len(tce.CancellationReasons) > 1 {
		if aws.ToString(tce.CancellationReasons[1].Code) == "ConditionalCheckFailed" {
			return fmt.Errorf("email %s already registered: %w", u.Email, domain.ErrDuplicateEmail)
		}
		if aws.ToString(tce.CancellationReasons[0].Code) == "ConditionalCheckFailed" {
			return fmt.Errorf("user id collision: %w", domain.ErrConflict)
		}
	}
	return fmt.Errorf("create user: %w", err)
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	// DynamoDB rejects empty key values with a ValidationException.
	if userID == "" {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.usersTable),
		Key:            strKey(attrUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s not found: %w", userID, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}

// GetByEmail resolves the email reservation, then loads the user it points at.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email not found: %w", domain.ErrNotFound)
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.emailsTable),
		Key:            strKey(attrEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get email lock: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("email not registered: %w", domain.ErrNotFound)
	}
	var lock emailLock
	if err := attributevalue.UnmarshalMap(out.Item, &lock); err != nil {
		return nil, fmt.Errorf("unmarshal email lock: %w", err)
	}
	return r.Get(ctx, lock.UserID)
}

// Update persists the mutable fields of u when the stored version still equals
// u.Version, then bumps u.Version. A lost race fails with domain.ErrConflict.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	now := r.now().UTC()
	ue, err := buildUpdateExpr(map[string]interface{}{
		attrPasswordHash:    u.PasswordHash,
		attrEmailVerified:   u.EmailVerified,
		attrResetCode:       u.ResetCode,
		attrResetCodeExpiry: u.ResetCodeExpiry,
		attrVersion:         u.Version + 1,
		attrUpdatedAt:       now,
	})
	if err != nil {
		return err
	}
	ue.Names["#ver"] = attrVersion
	ue.Values[":expected"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", u.Version)}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.usersTable),
		Key:                       strKey(attrUserID, u.UserID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("#ver = :expected"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("user %s changed concurrently: %w", u.UserID, domain.ErrConflict)
		}
		return fmt.Errorf("update user: %w", err)
	}
	u.Version++
	u.UpdatedAt = now
	return nil
}
