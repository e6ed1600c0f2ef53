package usecase

import "app/internal/domain/model"

// Actor は操作しているユーザー。役割ごとに許される遷移が違うので、
// 判定はusecase側に集約する（handlerで散らさない）。
type Actor struct {
	ID   int64
	Name string
	Role model.Role
}

func (a Actor) IsCustomer() bool { return a.Role == model.RoleUser }
func (a Actor) IsAdmin() bool    { return a.Role == model.RoleAdmin }
func (a Actor) IsDelivery() bool { return a.Role == model.RoleDelivery }
