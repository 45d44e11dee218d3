package upstream

// DTOs tal como los entrega el backend. Los estados viajan como string
// crudo y se normalizan una sola vez en el dominio (la casuística de
// mayúsculas difiere entre el vocabulario clínico y el de adopción).

// CitaRecord es una cita clínica (paciente/médico/consultorio).
type CitaRecord struct {
	ID            string
	PacienteID    string
	MedicoID      string
	ConsultorioID string
	Fecha         string // YYYY-MM-DD
	Hora          string // HH:MM
	Motivo        string
	Estado        string // pendiente/confirmada/cancelada (crudo)
}

// CrearCitaInput es el body de crearCitas.
type CrearCitaInput struct {
	PacienteID    string
	MedicoID      string
	ConsultorioID string
	Fecha         string
	Hora          string
	Motivo        string
	Estado        string
	Email         string // flujo adoptante; vacío en el flujo admin
}

// ActualizarCitaInput es el body de actualizarCitas. Campos vacíos no
// se tocan (el endpoint de cancelación solo cambia estado).
type ActualizarCitaInput struct {
	Fecha  string
	Hora   string
	Motivo string
	Estado string
}

// VisitaRecord es una entrada del historial de visitas de adopción.
type VisitaRecord struct {
	ID            string
	MascotaID     string
	MascotaNombre string
	FechaCita     string // "YYYY-MM-DD HH:MM:SS"
	Estado        string // Pendiente/Confirmada/Cancelada/Completada (crudo)
}

// Adoptante es el perfil de adoptante buscado por email.
type Adoptante struct {
	ID     string
	Nombre string
	Email  string
}

// Perfil es la respuesta de /me.
type Perfil struct {
	Email string
	Role  string
}

// Consultorio es un consultorio disponible para asignación.
type Consultorio struct {
	ID     string
	Numero string
}

// RegistrarAdoptanteInput es el body de registrarAdoptante.
type RegistrarAdoptanteInput struct {
	Nombre    string
	Apellido  string
	Email     string
	Telefono  string
	Direccion string
}
