package device

import "milkcollect/internal/domain/device"

type authorizationInput struct {
	Fingerprint string `path:"fingerprint" minLength:"1" doc:"Отпечаток устройства"`
}

type authorizationOutput struct {
	Status int
	Body   device.AuthorizationResponse
}

type registerInput struct {
	Body device.RegisterRequest
}

type registerOutput struct {
	Status int
	Body   device.RegisterResponse
}

type approveInput struct {
	Fingerprint string `path:"fingerprint" minLength:"1" doc:"Отпечаток устройства"`
	Body        device.ApproveRequest
}

type approveOutput struct {
	Body device.AuthorizationResponse
}
