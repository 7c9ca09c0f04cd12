package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/confeval/core/conference"
	"github.com/trezcool/confeval/core/project"
	"github.com/trezcool/confeval/core/review"
	"github.com/trezcool/confeval/core/tag"
	"github.com/trezcool/confeval/core/user"
)

type (
	Service interface {
		Overview(ctx context.Context) (Overview, error)
		// SessionCSV ranks a session's projects by their average completed
		// review score and renders them as CSV. It returns the file contents
		// and a suggested filename.
		SessionCSV(ctx context.Context, sessionID string) ([]byte, string, error)
	}

	service struct {
		usrSvc  user.Service
		confSvc conference.Service
		prjSvc  project.Service
		revSvc  review.Service
		tagSvc  tag.Service
	}
)

var _ Service = (*service)(nil)

func NewService(usrSvc user.Service, confSvc conference.Service, prjSvc project.Service, revSvc review.Service, tagSvc tag.Service) Service {
	return &service{
		usrSvc:  usrSvc,
		confSvc: confSvc,
		prjSvc:  prjSvc,
		revSvc:  revSvc,
		tagSvc:  tagSvc,
	}
}

func (svc *service) Overview(ctx context.Context) (Overview, error) {
	var ovw Overview

	users, err := svc.usrSvc.Query(ctx, nil, nil)
	if err != nil {
		return ovw, errors.Wrap(err, "querying users")
	}
	ovw.Users.Total = len(users)
	for i := range users {
		usr := &users[i]
		switch {
		case usr.IsAdmin():
			ovw.Users.Admins++
		case usr.IsStudent():
			ovw.Users.Students++
		case usr.RoleStartsWith(user.RoleReviewerInternal):
			ovw.Users.InternalReviewers++
		case usr.RoleStartsWith(user.RoleReviewerExternal):
			ovw.Users.ExternalReviewers++
		}
		if usr.IsReviewer() && !usr.IsApproved {
			ovw.Users.PendingApproval++
		}
	}

	sessions, err := svc.confSvc.QuerySessions(ctx, "")
	if err != nil {
		return ovw, errors.Wrap(err, "querying sessions")
	}
	ovw.Sessions.Total = len(sessions)
	for _, s := range sessions {
		switch s.Status {
		case conference.SessionStatusUpcoming:
			ovw.Sessions.Upcoming++
		case conference.SessionStatusActive:
			ovw.Sessions.Active++
		case conference.SessionStatusCompleted:
			ovw.Sessions.Completed++
		}
	}

	projects, err := svc.prjSvc.Query(ctx, nil)
	if err != nil {
		return ovw, errors.Wrap(err, "querying projects")
	}
	ovw.Projects.Total = len(projects)
	for _, prj := range projects {
		switch prj.Status {
		case project.StatusPending:
			ovw.Projects.Pending++
		case project.StatusApproved:
			ovw.Projects.Approved++
		case project.StatusRejected:
			ovw.Projects.Rejected++
		}
	}

	reviews, err := svc.revSvc.Query(ctx, nil)
	if err != nil {
		return ovw, errors.Wrap(err, "querying reviews")
	}
	ovw.Reviews.Total = len(reviews)
	var scoreSum float64
	for _, rev := range reviews {
		if rev.IsCompleted {
			ovw.Reviews.Completed++
			scoreSum += rev.TotalScore
		} else {
			ovw.Reviews.Pending++
		}
	}
	if ovw.Reviews.Completed > 0 {
		ovw.Reviews.AverageScore = round2(scoreSum / float64(ovw.Reviews.Completed))
	}
	return ovw, nil
}

var sessionCSVHeader = []string{
	"Rank", "Project ID", "Project Title", "Student Name", "Student Email",
	"Poster Number", "Status", "Tags", "Assigned Reviewers", "Completed Reviews",
	"Average Score", "Created At",
}

func (svc *service) SessionCSV(ctx context.Context, sessionID string) ([]byte, string, error) {
	sess, err := svc.confSvc.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	projects, err := svc.prjSvc.Query(ctx, &project.QueryFilter{SessionID: sessionID})
	if err != nil {
		return nil, "", errors.Wrap(err, "querying projects")
	}
	tagNames, err := svc.tagNames(ctx)
	if err != nil {
		return nil, "", err
	}

	type row struct {
		prj       project.Project
		completed int
		avgScore  float64
	}
	rows := make([]row, 0, len(projects))
	for _, prj := range projects {
		reviews, err := svc.revSvc.Query(ctx, &review.QueryFilter{ProjectID: prj.ID})
		if err != nil {
			return nil, "", errors.Wrap(err, "querying reviews")
		}
		r := row{prj: prj}
		var scoreSum float64
		for _, rev := range reviews {
			if rev.IsCompleted {
				r.completed++
				scoreSum += rev.TotalScore
			}
		}
		if r.completed > 0 {
			r.avgScore = round2(scoreSum / float64(r.completed))
		}
		rows = append(rows, r)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].avgScore > rows[j].avgScore })

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(sessionCSVHeader)
	for i, r := range rows {
		var studentName, studentEmail string
		if student, err := svc.usrSvc.GetByID(ctx, r.prj.StudentID); err == nil {
			studentName, studentEmail = student.Name, student.Email
		}
		reviewers := make([]string, 0, len(r.prj.ReviewerIDs))
		for _, id := range r.prj.ReviewerIDs {
			if rvw, err := svc.usrSvc.GetByID(ctx, id); err == nil {
				reviewers = append(reviewers, rvw.Name)
			}
		}
		_ = w.Write([]string{
			strconv.Itoa(i + 1),
			r.prj.ID,
			r.prj.Title,
			studentName,
			studentEmail,
			r.prj.PosterNumber,
			r.prj.Status,
			strings.Join(namesFor(r.prj.TagIDs, tagNames), ", "),
			strings.Join(reviewers, ", "),
			strconv.Itoa(r.completed),
			strconv.FormatFloat(r.avgScore, 'f', 2, 64),
			r.prj.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", errors.Wrap(err, "writing csv")
	}

	filename := fmt.Sprintf("session_%s_%s.csv",
		strings.ReplaceAll(sess.Name, " ", "_"), time.Now().UTC().Format("20060102"))
	return buf.Bytes(), filename, nil
}

func (svc *service) tagNames(ctx context.Context) (map[string]string, error) {
	tags, err := svc.tagSvc.QueryAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying tags")
	}
	names := make(map[string]string, len(tags))
	for _, t := range tags {
		names[t.ID] = t.Name
	}
	return names, nil
}

func namesFor(ids []string, names map[string]string) []string {
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			res = append(res, name)
		}
	}
	return res
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
