package http

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/example/dropplan/internal/application"
	"github.com/example/dropplan/internal/planning"
)

func formatHours(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func optionalHours(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	return lo.ToPtr(formatHours(*d))
}

func optionalDay(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return lo.ToPtr(planning.FormatDay(*t))
}

func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func optionalInstant(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return lo.ToPtr(formatInstant(*t))
}

// ----------------------------- Users -----------------------------

type userDTO struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	DisplayName    string  `json:"display_name"`
	Role           string  `json:"role"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	CapacityPerDay string  `json:"capacity_per_day"`
	IsActive       bool    `json:"is_active"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		ID:             user.ID,
		Email:          user.Email,
		DisplayName:    user.DisplayName,
		Role:           string(user.Role),
		AvatarURL:      user.AvatarURL,
		CapacityPerDay: formatHours(user.CapacityPerDay),
		IsActive:       user.IsActive,
		CreatedAt:      formatInstant(user.CreatedAt),
		UpdatedAt:      formatInstant(user.UpdatedAt),
	}
}

type userRequest struct {
	Email          string           `json:"email"`
	DisplayName    string           `json:"display_name"`
	Password       string           `json:"password"`
	Role           string           `json:"role"`
	AvatarURL      *string          `json:"avatar_url"`
	CapacityPerDay *decimal.Decimal `json:"capacity_per_day"`
}

func (r userRequest) toInput() application.UserInput {
	return application.UserInput{
		Email:          r.Email,
		DisplayName:    r.DisplayName,
		Password:       r.Password,
		Role:           application.Role(r.Role),
		AvatarURL:      r.AvatarURL,
		CapacityPerDay: r.CapacityPerDay,
	}
}

type userPatchRequest struct {
	Email          *string          `json:"email"`
	DisplayName    *string          `json:"display_name"`
	Password       *string          `json:"password"`
	Role           *string          `json:"role"`
	AvatarURL      *string          `json:"avatar_url"`
	CapacityPerDay *decimal.Decimal `json:"capacity_per_day"`
	IsActive       *bool            `json:"is_active"`
}

func (r userPatchRequest) toPatch() application.UserPatch {
	patch := application.UserPatch{
		Email:          r.Email,
		DisplayName:    r.DisplayName,
		Password:       r.Password,
		AvatarURL:      r.AvatarURL,
		CapacityPerDay: r.CapacityPerDay,
		IsActive:       r.IsActive,
	}
	if r.Role != nil {
		patch.Role = lo.ToPtr(application.Role(*r.Role))
	}
	return patch
}

// ----------------------------- Projects -----------------------------

type projectDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsActive    bool    `json:"is_active"`
	CreatedBy   string  `json:"created_by"`
	MemberCount int     `json:"member_count"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toProjectDTO(project application.Project) projectDTO {
	return projectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		IsActive:    project.IsActive,
		CreatedBy:   project.CreatedBy,
		MemberCount: project.MemberCount,
		CreatedAt:   formatInstant(project.CreatedAt),
		UpdatedAt:   formatInstant(project.UpdatedAt),
	}
}

type projectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type projectPatchRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type memberDTO struct {
	ProjectID      string `json:"project_id"`
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
	Role           string `json:"role"`
	CapacityPerDay string `json:"capacity_per_day"`
	IsActive       bool   `json:"is_active"`
	AddedBy        string `json:"added_by"`
	AddedAt        string `json:"added_at"`
}

func toMemberDTO(member application.ProjectMember) memberDTO {
	return memberDTO{
		ProjectID:      member.ProjectID,
		UserID:         member.UserID,
		Email:          member.Email,
		DisplayName:    member.DisplayName,
		Role:           string(member.Role),
		CapacityPerDay: formatHours(member.CapacityPerDay),
		IsActive:       member.IsActive,
		AddedBy:        member.AddedBy,
		AddedAt:        formatInstant(member.AddedAt),
	}
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
}

// ----------------------------- Iterations -----------------------------

type iterationDTO struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"project_id"`
	Name        string   `json:"name"`
	Goal        *string  `json:"goal,omitempty"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	State       string   `json:"state"`
	WorkingDays []string `json:"working_days"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func toIterationDTO(iteration application.Iteration) iterationDTO {
	return iterationDTO{
		ID:          iteration.ID,
		ProjectID:   iteration.ProjectID,
		Name:        iteration.Name,
		Goal:        iteration.Goal,
		StartDate:   planning.FormatDay(iteration.StartDate),
		EndDate:     planning.FormatDay(iteration.EndDate),
		State:       string(iteration.State),
		WorkingDays: planning.FormatWorkingDays(iteration.WorkingDays),
		CreatedAt:   formatInstant(iteration.CreatedAt),
		UpdatedAt:   formatInstant(iteration.UpdatedAt),
	}
}

type iterationRequest struct {
	Name        string   `json:"name"`
	Goal        *string  `json:"goal"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	State       string   `json:"state"`
	WorkingDays []string `json:"working_days"`
}

func (r iterationRequest) toInput() (application.IterationInput, fieldErrors) {
	errs := fieldErrors{}
	input := application.IterationInput{
		Name:      r.Name,
		Goal:      r.Goal,
		StartDate: errs.day("start_date", r.StartDate),
		EndDate:   errs.day("end_date", r.EndDate),
		State:     planning.IterationState(r.State),
	}
	if len(r.WorkingDays) > 0 {
		input.WorkingDays = errs.days("working_days", r.WorkingDays)
	}
	return input, errs
}

type iterationPatchRequest struct {
	Name        *string   `json:"name"`
	Goal        *string   `json:"goal"`
	StartDate   *string   `json:"start_date"`
	EndDate     *string   `json:"end_date"`
	State       *string   `json:"state"`
	WorkingDays *[]string `json:"working_days"`
}

func (r iterationPatchRequest) toPatch() (application.IterationPatch, fieldErrors) {
	errs := fieldErrors{}
	patch := application.IterationPatch{
		Name:      r.Name,
		Goal:      r.Goal,
		StartDate: errs.optionalDay("start_date", r.StartDate),
		EndDate:   errs.optionalDay("end_date", r.EndDate),
	}
	if r.State != nil {
		patch.State = lo.ToPtr(planning.IterationState(*r.State))
	}
	if r.WorkingDays != nil {
		days := errs.days("working_days", *r.WorkingDays)
		patch.WorkingDays = &days
	}
	return patch, errs
}

// ----------------------------- Work items -----------------------------

type workItemDTO struct {
	ID              string   `json:"id"`
	ProjectID       string   `json:"project_id"`
	Type            string   `json:"type"`
	Title           string   `json:"title"`
	Description     *string  `json:"description,omitempty"`
	State           string   `json:"state"`
	Priority        string   `json:"priority"`
	ParentID        *string  `json:"parent_id"`
	AssignedTo      *string  `json:"assigned_to"`
	IterationID     *string  `json:"iteration_id"`
	EstimationHours *string  `json:"estimation_hours"`
	CompletedHours  string   `json:"completed_hours"`
	RemainingHours  *string  `json:"remaining_hours"`
	Tags            []string `json:"tags"`
	StartDate       *string  `json:"start_date"`
	EndDate         *string  `json:"end_date"`
	CreatedBy       string   `json:"created_by"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

func toWorkItemDTO(item application.WorkItem) workItemDTO {
	return workItemDTO{
		ID:              item.ID,
		ProjectID:       item.ProjectID,
		Type:            string(item.Type),
		Title:           item.Title,
		Description:     item.Description,
		State:           string(item.State),
		Priority:        string(item.Priority),
		ParentID:        item.ParentID,
		AssignedTo:      item.AssignedTo,
		IterationID:     item.IterationID,
		EstimationHours: optionalHours(item.EstimationHours),
		CompletedHours:  formatHours(item.CompletedHours),
		RemainingHours:  optionalHours(item.RemainingHours),
		Tags:            nonNilStrings(item.Tags),
		StartDate:       optionalDay(item.StartDate),
		EndDate:         optionalDay(item.EndDate),
		CreatedBy:       item.CreatedBy,
		CreatedAt:       formatInstant(item.CreatedAt),
		UpdatedAt:       formatInstant(item.UpdatedAt),
	}
}

type workItemRequest struct {
	Type            string           `json:"type"`
	Title           string           `json:"title"`
	Description     *string          `json:"description"`
	State           string           `json:"state"`
	Priority        string           `json:"priority"`
	ParentID        *string          `json:"parent_id"`
	AssignedTo      *string          `json:"assigned_to"`
	IterationID     *string          `json:"iteration_id"`
	EstimationHours *decimal.Decimal `json:"estimation_hours"`
	Tags            []string         `json:"tags"`
	StartDate       *string          `json:"start_date"`
	EndDate         *string          `json:"end_date"`
}

func (r workItemRequest) toInput() (application.WorkItemInput, fieldErrors) {
	errs := fieldErrors{}
	return application.WorkItemInput{
		Type:            planning.ItemType(r.Type),
		Title:           r.Title,
		Description:     r.Description,
		State:           planning.ItemState(r.State),
		Priority:        planning.Priority(r.Priority),
		ParentID:        r.ParentID,
		AssignedTo:      r.AssignedTo,
		IterationID:     r.IterationID,
		EstimationHours: r.EstimationHours,
		Tags:            r.Tags,
		StartDate:       errs.optionalDay("start_date", r.StartDate),
		EndDate:         errs.optionalDay("end_date", r.EndDate),
	}, errs
}

type workItemPatchRequest struct {
	Title           *string          `json:"title"`
	Description     *string          `json:"description"`
	State           *string          `json:"state"`
	Priority        *string          `json:"priority"`
	ParentID        optional[string] `json:"parent_id"`
	AssignedTo      optional[string] `json:"assigned_to"`
	IterationID     optional[string] `json:"iteration_id"`
	EstimationHours *decimal.Decimal `json:"estimation_hours"`
	Tags            *[]string        `json:"tags"`
	StartDate       *string          `json:"start_date"`
	EndDate         *string          `json:"end_date"`
}

func (r workItemPatchRequest) toPatch() (application.WorkItemPatch, fieldErrors) {
	errs := fieldErrors{}
	patch := application.WorkItemPatch{
		Title:           r.Title,
		Description:     r.Description,
		ParentID:        r.ParentID.Value,
		ClearParent:     r.ParentID.cleared(),
		AssignedTo:      r.AssignedTo.Value,
		ClearAssignee:   r.AssignedTo.cleared(),
		IterationID:     r.IterationID.Value,
		ClearIteration:  r.IterationID.cleared(),
		EstimationHours: r.EstimationHours,
		Tags:            r.Tags,
		StartDate:       errs.optionalDay("start_date", r.StartDate),
		EndDate:         errs.optionalDay("end_date", r.EndDate),
	}
	if r.State != nil {
		patch.State = lo.ToPtr(planning.ItemState(*r.State))
	}
	if r.Priority != nil {
		patch.Priority = lo.ToPtr(planning.Priority(*r.Priority))
	}
	return patch, errs
}

// ----------------------------- Work sessions -----------------------------

type workSessionDTO struct {
	ID          string  `json:"id"`
	WorkItemID  string  `json:"work_item_id"`
	UserID      string  `json:"user_id"`
	Description *string `json:"description,omitempty"`
	StartedAt   string  `json:"started_at"`
	EndedAt     *string `json:"ended_at"`
	TotalHours  *string `json:"total_hours"`
	CreatedAt   string  `json:"created_at"`
}

func toWorkSessionDTO(session application.WorkSession) workSessionDTO {
	return workSessionDTO{
		ID:          session.ID,
		WorkItemID:  session.WorkItemID,
		UserID:      session.UserID,
		Description: session.Description,
		StartedAt:   formatInstant(session.StartedAt),
		EndedAt:     optionalInstant(session.EndedAt),
		TotalHours:  optionalHours(session.TotalHours),
		CreatedAt:   formatInstant(session.CreatedAt),
	}
}

type workSessionRequest struct {
	Description *string    `json:"description"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at"`
}

type workSessionPatchRequest struct {
	Description *string    `json:"description"`
	StartedAt   *time.Time `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at"`
	Reopen      bool       `json:"reopen"`
}

// ----------------------------- Drop plan -----------------------------

type iterationHeaderDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	State     string `json:"state"`
}

func toIterationHeaderDTO(header application.IterationHeader) iterationHeaderDTO {
	return iterationHeaderDTO{
		ID:        header.ID,
		Name:      header.Name,
		StartDate: planning.FormatDay(header.StartDate),
		EndDate:   planning.FormatDay(header.EndDate),
		State:     string(header.State),
	}
}

type taskViewDTO struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	State           string   `json:"state"`
	Priority        string   `json:"priority"`
	AssignedTo      *string  `json:"assigned_to"`
	ParentID        *string  `json:"parent_id"`
	ParentTitle     *string  `json:"parent_title"`
	EstimationHours *string  `json:"estimation_hours"`
	CompletedHours  string   `json:"completed_hours"`
	RemainingHours  *string  `json:"remaining_hours"`
	StartDate       *string  `json:"start_date"`
	EndDate         *string  `json:"end_date"`
	Tags            []string `json:"tags"`
}

func toTaskViewDTO(task application.TaskView) taskViewDTO {
	return taskViewDTO{
		ID:              task.ID,
		Title:           task.Title,
		State:           string(task.State),
		Priority:        string(task.Priority),
		AssignedTo:      task.AssignedTo,
		ParentID:        task.ParentID,
		ParentTitle:     task.ParentTitle,
		EstimationHours: optionalHours(task.EstimationHours),
		CompletedHours:  formatHours(task.CompletedHours),
		RemainingHours:  optionalHours(task.RemainingHours),
		StartDate:       optionalDay(task.StartDate),
		EndDate:         optionalDay(task.EndDate),
		Tags:            nonNilStrings(task.Tags),
	}
}

func toTaskViewDTOs(tasks []application.TaskView) []taskViewDTO {
	return lo.Map(tasks, func(task application.TaskView, _ int) taskViewDTO { return toTaskViewDTO(task) })
}

type memberSummaryDTO struct {
	UserID         string  `json:"user_id"`
	DisplayName    string  `json:"display_name"`
	Email          string  `json:"email"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	CapacityPerDay string  `json:"capacity_per_day"`
}

func toMemberSummaryDTO(member application.MemberSummary) memberSummaryDTO {
	return memberSummaryDTO{
		UserID:         member.UserID,
		DisplayName:    member.DisplayName,
		Email:          member.Email,
		AvatarURL:      member.AvatarURL,
		CapacityPerDay: formatHours(member.CapacityPerDay),
	}
}

type sprintOverviewDTO struct {
	Iteration       iterationHeaderDTO `json:"iteration"`
	WorkingDays     []string           `json:"working_days"`
	Members         []memberSummaryDTO `json:"members"`
	TotalTasks      int                `json:"total_tasks"`
	TotalEstimation string             `json:"total_estimation"`
	TotalCompleted  string             `json:"total_completed"`
}

func toSprintOverviewDTO(overview application.SprintOverview) sprintOverviewDTO {
	return sprintOverviewDTO{
		Iteration:   toIterationHeaderDTO(overview.Iteration),
		WorkingDays: planning.FormatWorkingDays(overview.WorkingDays),
		Members: lo.Map(overview.Members, func(m application.MemberSummary, _ int) memberSummaryDTO {
			return toMemberSummaryDTO(m)
		}),
		TotalTasks:      overview.TotalTasks,
		TotalEstimation: formatHours(overview.TotalEstimation),
		TotalCompleted:  formatHours(overview.TotalCompleted),
	}
}

type userTasksDTO struct {
	Iteration       iterationHeaderDTO `json:"iteration"`
	WorkingDays     []string           `json:"working_days"`
	Member          *memberSummaryDTO  `json:"member"`
	Tasks           []taskViewDTO      `json:"tasks"`
	TotalEstimation string             `json:"total_estimation"`
	TotalCompleted  string             `json:"total_completed"`
}

func toUserTasksDTO(result application.UserTasks) userTasksDTO {
	dto := userTasksDTO{
		Iteration:       toIterationHeaderDTO(result.Iteration),
		WorkingDays:     planning.FormatWorkingDays(result.WorkingDays),
		Tasks:           toTaskViewDTOs(result.Tasks),
		TotalEstimation: formatHours(result.TotalEstimation),
		TotalCompleted:  formatHours(result.TotalCompleted),
	}
	if result.Member != nil {
		dto.Member = lo.ToPtr(toMemberSummaryDTO(*result.Member))
	}
	return dto
}

type dropPlanItemDTO struct {
	ID             string `json:"id"`
	IterationID    string `json:"iteration_id"`
	WorkItemID     string `json:"work_item_id"`
	AssignedUserID string `json:"assigned_user_id"`
	PlannedDate    string `json:"planned_date"`
	OrderIndex     int    `json:"order_index"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toDropPlanItemDTO(item application.DropPlanItem) dropPlanItemDTO {
	return dropPlanItemDTO{
		ID:             item.ID,
		IterationID:    item.IterationID,
		WorkItemID:     item.WorkItemID,
		AssignedUserID: item.AssignedUserID,
		PlannedDate:    planning.FormatDay(item.PlannedDate),
		OrderIndex:     item.OrderIndex,
		CreatedAt:      formatInstant(item.CreatedAt),
		UpdatedAt:      formatInstant(item.UpdatedAt),
	}
}

type plannedItemDTO struct {
	dropPlanItemDTO
	Title           string   `json:"title"`
	Type            string   `json:"type"`
	State           string   `json:"state"`
	Priority        string   `json:"priority"`
	Tags            []string `json:"tags"`
	ParentTitle     *string  `json:"parent_title"`
	EstimationHours *string  `json:"estimation_hours"`
	CompletedHours  string   `json:"completed_hours"`
	RemainingHours  *string  `json:"remaining_hours"`
}

type userCapacityDTO struct {
	UserID         string  `json:"user_id"`
	DisplayName    string  `json:"display_name"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	CapacityPerDay string  `json:"capacity_per_day"`
	TotalCapacity  string  `json:"total_capacity"`
	TotalPlanned   string  `json:"total_planned"`
}

type dayLoadDTO struct {
	Date            string `json:"date"`
	Capacity        string `json:"capacity"`
	Planned         string `json:"planned"`
	IsOvercommitted bool   `json:"is_overcommitted"`
}

func toDayLoadDTOs(days []planning.DayLoad) []dayLoadDTO {
	return lo.Map(days, func(d planning.DayLoad, _ int) dayLoadDTO {
		return dayLoadDTO{
			Date:            planning.FormatDay(d.Date),
			Capacity:        formatHours(d.Capacity),
			Planned:         formatHours(d.Planned),
			IsOvercommitted: d.IsOvercommitted,
		}
	})
}

type userDropPlanDTO struct {
	Iteration   iterationHeaderDTO `json:"iteration"`
	WorkingDays []string           `json:"working_days"`
	User        userCapacityDTO    `json:"user"`
	Items       []plannedItemDTO   `json:"items"`
	LoadByDay   []dayLoadDTO       `json:"load_by_day"`
}

func toUserDropPlanDTO(plan application.UserDropPlan) userDropPlanDTO {
	return userDropPlanDTO{
		Iteration:   toIterationHeaderDTO(plan.Iteration),
		WorkingDays: planning.FormatWorkingDays(plan.WorkingDays),
		User: userCapacityDTO{
			UserID:         plan.User.UserID,
			DisplayName:    plan.User.DisplayName,
			AvatarURL:      plan.User.AvatarURL,
			CapacityPerDay: formatHours(plan.User.CapacityPerDay),
			TotalCapacity:  formatHours(plan.User.TotalCapacity),
			TotalPlanned:   formatHours(plan.User.TotalPlanned),
		},
		Items: lo.Map(plan.Items, func(item application.PlannedItemView, _ int) plannedItemDTO {
			return plannedItemDTO{
				dropPlanItemDTO: toDropPlanItemDTO(item.DropPlanItem),
				Title:           item.Title,
				Type:            string(item.Type),
				State:           string(item.State),
				Priority:        string(item.Priority),
				Tags:            nonNilStrings(item.Tags),
				ParentTitle:     item.ParentTitle,
				EstimationHours: optionalHours(item.EstimationHours),
				CompletedHours:  formatHours(item.CompletedHours),
				RemainingHours:  optionalHours(item.RemainingHours),
			}
		}),
		LoadByDay: toDayLoadDTOs(plan.LoadByDay),
	}
}

type userLoadDTO struct {
	UserID             string `json:"user_id"`
	DisplayName        string `json:"display_name"`
	Capacity           string `json:"capacity"`
	Planned            string `json:"planned"`
	UtilizationPercent string `json:"utilization_percent"`
}

type sprintCapacityDTO struct {
	Iteration          iterationHeaderDTO `json:"iteration"`
	WorkingDays        []string           `json:"working_days"`
	TotalCapacity      string             `json:"total_capacity"`
	TotalPlanned       string             `json:"total_planned"`
	UtilizationPercent string             `json:"utilization_percent"`
	IsOvercommitted    bool               `json:"is_overcommitted"`
	ByDay              []dayLoadDTO       `json:"by_day"`
	ByUser             []userLoadDTO      `json:"by_user"`
}

func toSprintCapacityDTO(capacity application.SprintCapacity) sprintCapacityDTO {
	return sprintCapacityDTO{
		Iteration:          toIterationHeaderDTO(capacity.Iteration),
		WorkingDays:        planning.FormatWorkingDays(capacity.WorkingDays),
		TotalCapacity:      formatHours(capacity.TotalCapacity),
		TotalPlanned:       formatHours(capacity.TotalPlanned),
		UtilizationPercent: formatHours(capacity.UtilizationPercent),
		IsOvercommitted:    capacity.IsOvercommitted,
		ByDay:              toDayLoadDTOs(capacity.ByDay),
		ByUser: lo.Map(capacity.ByUser, func(u planning.UserLoad, _ int) userLoadDTO {
			return userLoadDTO{
				UserID:             u.UserID,
				DisplayName:        u.DisplayName,
				Capacity:           formatHours(u.Capacity),
				Planned:            formatHours(u.Planned),
				UtilizationPercent: formatHours(u.UtilizationPercent),
			}
		}),
	}
}

type moveTaskRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type dropPlanItemRequest struct {
	WorkItemID     string `json:"work_item_id"`
	AssignedUserID string `json:"assigned_user_id"`
	PlannedDate    string `json:"planned_date"`
	OrderIndex     int    `json:"order_index"`
}

type dropPlanItemPatchRequest struct {
	AssignedUserID *string `json:"assigned_user_id"`
	PlannedDate    *string `json:"planned_date"`
	OrderIndex     *int    `json:"order_index"`
}

// ----------------------------- Calendar -----------------------------

type holidayDTO struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Description *string `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func toHolidayDTO(holiday application.Holiday) holidayDTO {
	return holidayDTO{
		ID:          holiday.ID,
		Date:        planning.FormatDay(holiday.Date),
		Description: holiday.Description,
		CreatedAt:   formatInstant(holiday.CreatedAt),
	}
}

type holidayRequest struct {
	Date        string  `json:"date"`
	Description *string `json:"description"`
}

type nonWorkingDayDTO struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	Description *string `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func toNonWorkingDayDTO(day application.NonWorkingDay) nonWorkingDayDTO {
	return nonWorkingDayDTO{
		ID:          day.ID,
		UserID:      day.UserID,
		Date:        planning.FormatDay(day.Date),
		Type:        string(day.Type),
		Description: day.Description,
		CreatedAt:   formatInstant(day.CreatedAt),
	}
}

type nonWorkingDayRequest struct {
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	Description *string `json:"description"`
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
