package domain

import "errors"

var ErrShipmentNotFound = errors.New("shipment not found")
var ErrHubNotFound = errors.New("hub not found")
var ErrNoHubCoverage = errors.New("no active hub covers pincode")
var ErrNoPartnerZone = errors.New("no active partner zone covers pincode")
var ErrNoTransitHistory = errors.New("no historical transit data for route")
var ErrPredictionNotFound = errors.New("no active prediction for shipment")
var ErrShipmentTerminal = errors.New("shipment is in a terminal status")
var ErrInvalidPincode = errors.New("pincode must be six digits")
