package rest

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/repository"
)

type userRepository struct {
	client *Client
}

func NewUserRepository(client *Client) repository.UserRepository {
	return &userRepository{client: client}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *userRepository) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	env, err := r.client.do(ctx, request{
		method:   http.MethodPost,
		path:     "/users/login",
		body:     credentials{Email: email, Password: password},
		fallback: "Login failed",
	})
	if err != nil {
		return nil, err
	}
	res := &domain.AuthResult{}
	if err := decodeData(env, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Register returns the backend's confirmation message (an OTP was emailed).
func (r *userRepository) Register(ctx context.Context, reg domain.Registration) (string, error) {
	env, err := r.client.do(ctx, request{
		method:   http.MethodPost,
		path:     "/users/register",
		body:     reg,
		fallback: "Registration failed",
	})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp,omitempty"`
}

func (r *userRepository) VerifyEmail(ctx context.Context, email, otp string) (*domain.AuthResult, error) {
	env, err := r.client.do(ctx, request{
		method:   http.MethodPost,
		path:     "/users/verify-email",
		body:     otpRequest{Email: email, OTP: otp},
		fallback: "Verification failed",
	})
	if err != nil {
		return nil, err
	}
	res := &domain.AuthResult{}
	if err := decodeData(env, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *userRepository) ResendOTP(ctx context.Context, email string) (string, error) {
	env, err := r.client.do(ctx, request{
		method:   http.MethodPost,
		path:     "/users/resend-otp",
		body:     otpRequest{Email: email},
		fallback: "Failed to resend OTP",
	})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (r *userRepository) GetProfile(ctx context.Context, token string) (*domain.User, error) {
	env, err := r.client.do(ctx, request{
		method:   http.MethodGet,
		path:     "/users/profile",
		token:    token,
		fallback: "Failed to load profile",
	})
	if err != nil {
		return nil, err
	}
	u := &domain.User{}
	if err := decodeData(env, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.User, error) {
	env, err := r.client.do(ctx, request{
		method:   http.MethodPut,
		path:     "/users/profile",
		token:    token,
		body:     update,
		fallback: "Failed to update profile",
	})
	if err != nil {
		return nil, err
	}
	u := &domain.User{}
	if err := decodeData(env, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) UploadDocuments(ctx context.Context, token string, files map[domain.DocumentSlot]domain.DocumentFile) (*domain.DocumentUploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	// Fixed slot order keeps the request body deterministic.
	for _, slot := range domain.DocumentSlots {
		f, ok := files[slot]
		if !ok {
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, slot, f.Filename))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("failed to create multipart part: %w", err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("failed to write multipart part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	env, err := r.client.do(ctx, request{
		method:      http.MethodPost,
		path:        "/users/upload-documents",
		token:       token,
		rawBody:     &buf,
		contentType: mw.FormDataContentType(),
		fallback:    "Failed to upload documents",
	})
	if err != nil {
		return nil, err
	}
	res := &domain.DocumentUploadResult{}
	if err := decodeData(env, res); err != nil {
		return nil, err
	}
	return res, nil
}
