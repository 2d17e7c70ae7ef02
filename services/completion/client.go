package completionsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/sauti/core"
	"github.com/trezcool/sauti/core/faq"
)

const endpoint = "/chat/completions"

type (
	// Client talks to an OpenAI-compatible chat completion API.
	Client struct {
		baseURL string
		apiKey  string
		model   string
		client  *rest.Client
	}

	chatRequest struct {
		Model    string        `json:"model"`
		Messages []faq.Message `json:"messages"`
	}

	chatResponse struct {
		Choices []struct {
			Message faq.Message `json:"message"`
		} `json:"choices"`
	}
)

var _ faq.Completer = (*Client)(nil) // interface compliance check

func NewClient(conf *core.Config) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(conf.Completion.BaseURL, "/"),
		apiKey:  conf.Completion.APIKey,
		model:   conf.Completion.Model,
		client:  &rest.Client{HTTPClient: &http.Client{Timeout: conf.Completion.Timeout}},
	}
}

func (c *Client) Complete(ctx context.Context, messages []faq.Message) (string, error) {
	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", errors.Wrap(err, "encoding completion request")
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}
	req, err := rest.BuildRequestObject(rest.Request{
		Method:  rest.Post,
		BaseURL: c.baseURL + endpoint,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return "", errors.Wrap(err, "building completion request")
	}
	httpRes, err := c.client.MakeRequest(req.WithContext(ctx))
	if err != nil {
		return "", errors.Wrap(err, "requesting completion")
	}
	res, err := rest.BuildResponse(httpRes)
	if err != nil {
		return "", errors.Wrap(err, "reading completion response")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return "", errors.Errorf("completion API - status: %d - Body: %s", res.StatusCode, res.Body)
	}

	var cr chatResponse
	if err = json.Unmarshal([]byte(res.Body), &cr); err != nil {
		return "", errors.Wrap(err, "decoding completion response")
	}
	if len(cr.Choices) == 0 {
		return "", errors.New("completion API returned no choices")
	}
	return cr.Choices[0].Message.Content, nil
}
