package tests

import (
	"errors"
	"net/http"
	"testing"

	"github.com/trezcool/sauti/core/faq"
	"github.com/trezcool/sauti/core/user"
	"github.com/trezcool/sauti/tests"
)

func TestChat(t *testing.T) {
	a := setup(t)
	student := testutil.CreateUser(t, a.usrRepo, "student@uni.test", user.RoleStudent)
	token := getToken(t, a.conf, student)
	question := marchallObj(t, faq.Question{Message: "How do I submit a report?"})

	a.run(t, []httpTest{
		{
			name:     "missing token",
			method:   http.MethodPost,
			path:     "/api/chat",
			body:     question,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "empty message",
			method:   http.MethodPost,
			path:     "/api/chat",
			token:    token,
			body:     marchallObj(t, faq.Question{Message: "   "}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"message": "this field is required"}),
		},
		{
			name:     "answered",
			method:   http.MethodPost,
			path:     "/api/chat",
			token:    token,
			body:     question,
			wantData: marchallObj(t, faq.Answer{Answer: "Hello!"}),
		},
	})

	a.completer.err = errors.New("upstream unavailable")
	a.run(t, []httpTest{
		{
			name:     "completion failure",
			method:   http.MethodPost,
			path:     "/api/chat",
			token:    token,
			body:     question,
			wantData: marchallObj(t, faq.Answer{Answer: faq.FallbackAnswer}),
		},
	})
}
