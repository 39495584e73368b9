package device

// RegisterRequest заявка на регистрацию устройства
type RegisterRequest struct {
	Fingerprint string `json:"fingerprint" minLength:"16" doc:"Отпечаток устройства"`
	UserID      string `json:"user_id,omitempty" doc:"Пользователь, если уже известен"`
	DeviceInfo  string `json:"device_info,omitempty" doc:"Описание устройства"`
	Approved    bool   `json:"approved,omitempty" doc:"Всегда false при регистрации с устройства"`
}

// AuthorizationData состояние авторизации в формате бэкенда
type AuthorizationData struct {
	Authorized    int    `json:"authorized" enum:"0,1" doc:"1 если устройство одобрено"`
	CompanyName   string `json:"company_name" doc:"Компания, за которой закреплено устройство"`
	UniqueDevCode string `json:"uniquedevcode" doc:"Код устройства"`
}

// AuthorizationResponse ответ на запрос авторизации по отпечатку
type AuthorizationResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Data    *AuthorizationData `json:"data,omitempty"`
}

// RegisterResponse ответ на регистрацию
type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ApproveRequest одобрение устройства администратором
type ApproveRequest struct {
	CompanyName string `json:"company_name" minLength:"1" doc:"Компания"`
}

func toAuthorizationData(d Device) AuthorizationData {
	data := AuthorizationData{
		CompanyName:   d.CompanyName,
		UniqueDevCode: d.UniqueDevCode,
	}
	if d.Approved {
		data.Authorized = 1
	}
	return data
}
