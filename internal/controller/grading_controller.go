package controller

import (
	"assessment_engine/internal/grading"
	"assessment_engine/internal/model"
	"assessment_engine/internal/service"
	"assessment_engine/internal/util"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type GradingController struct {
	Service *service.GradingService
}

func NewGradingController(svc *service.GradingService) *GradingController {
	return &GradingController{Service: svc}
}

type PreviewReq struct {
	QuestionType   string                 `json:"questionType" binding:"required"`
	ExpectedAnswer map[string]interface{} `json:"expectedAnswer" binding:"required"`
	Options        map[string]interface{} `json:"options"`
	Points         int                    `json:"points" binding:"required,min=1"`
	AnswerText     string                 `json:"answerText"`
	AnswerData     map[string]interface{} `json:"answerData"`
}

// Preview grades a single answer without storing it.
// POST /api/grading/preview
func (c *GradingController) Preview(ctx *gin.Context) {
	var req PreviewReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q := grading.Question{
		Type:           grading.QuestionType(req.QuestionType),
		ExpectedAnswer: req.ExpectedAnswer,
		Options:        req.Options,
		Points:         req.Points,
	}
	text := grading.Answer{Text: req.AnswerText, Data: req.AnswerData}.EffectiveText()

	util.Success(ctx, gin.H{
		"backend": c.Service.BackendName(),
		"result":  c.Service.PreviewAnswer(ctx.Request.Context(), q, text),
	})
}

// CreateSubmission stores a finished attempt and grades it.
// POST /api/submissions
func (c *GradingController) CreateSubmission(ctx *gin.Context) {
	var req service.CreateSubmissionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	submission, err := c.Service.CreateSubmission(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, util.Response{
		Code:    http.StatusCreated,
		Message: "submission created and graded",
		Data:    submission,
	})
}

// GET /api/submissions/:id
func (c *GradingController) GetSubmission(ctx *gin.Context) {
	id, ok := submissionID(ctx)
	if !ok {
		return
	}
	submission, err := c.Service.GetSubmission(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, submission)
}

// GET /api/submissions/:id/stats
func (c *GradingController) Stats(ctx *gin.Context) {
	id, ok := submissionID(ctx)
	if !ok {
		return
	}
	stats, err := c.Service.Stats(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// POST /api/submissions/:id/submit
func (c *GradingController) Submit(ctx *gin.Context) {
	c.gradeAction(ctx, c.Service.Submit)
}

// POST /api/submissions/:id/grade
func (c *GradingController) Grade(ctx *gin.Context) {
	c.gradeAction(ctx, c.Service.GradeSubmission)
}

// POST /api/submissions/:id/regrade
func (c *GradingController) Regrade(ctx *gin.Context) {
	c.gradeAction(ctx, c.Service.Regrade)
}

func (c *GradingController) gradeAction(ctx *gin.Context, action func(ctx context.Context, id uint) (*model.Submission, error)) {
	id, ok := submissionID(ctx)
	if !ok {
		return
	}
	submission, err := action(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, submission)
}

func submissionID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid submission id")
		return 0, false
	}
	return uint(id), true
}

func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSubmissionNotFound), errors.Is(err, util.ErrExamNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrQuestionNotInExam),
		errors.Is(err, util.ErrDuplicateAnswer),
		errors.Is(err, util.ErrNoAnswers),
		errors.Is(err, util.ErrUnansweredQuestion),
		errors.Is(err, util.ErrEmptyAnswer):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrSubmissionExists),
		errors.Is(err, util.ErrSubmissionNotSubmitted),
		errors.Is(err, util.ErrSubmissionAlreadyGraded),
		errors.Is(err, util.ErrSubmissionClosed):
		util.Conflict(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
