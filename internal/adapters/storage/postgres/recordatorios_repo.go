package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"safepets-citas/internal/domain/recordatorios"
	"safepets-citas/internal/ports/notify"
)

// Esquema esperado:
//
//	CREATE TABLE IF NOT EXISTS recordatorios (
//	  id            TEXT PRIMARY KEY,
//	  cita_id       TEXT NOT NULL,
//	  dispara_en    TIMESTAMPTZ NOT NULL,
//	  titulo        TEXT NOT NULL,
//	  cuerpo        TEXT NOT NULL,
//	  destino_push  TEXT NOT NULL DEFAULT '',
//	  destino_email TEXT NOT NULL DEFAULT '',
//	  estado        TEXT NOT NULL,
//	  creado_en     TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX IF NOT EXISTS idx_recordatorios_cita ON recordatorios (cita_id, creado_en DESC);
type RecordatoriosRepo struct {
	db *sql.DB
}

var _ recordatorios.Repository = (*RecordatoriosRepo)(nil)

func NewRecordatoriosRepo(db *sql.DB) *RecordatoriosRepo {
	return &RecordatoriosRepo{db: db}
}

func (r *RecordatoriosRepo) Create(ctx context.Context, rec recordatorios.Recordatorio) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recordatorios (
			id, cita_id,
			dispara_en, titulo, cuerpo,
			destino_push, destino_email,
			estado, creado_en
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		rec.ID,
		rec.CitaID,
		rec.DisparaEn,
		rec.Titulo,
		rec.Cuerpo,
		rec.Destino.PushToken,
		rec.Destino.Email,
		string(rec.Estado),
		rec.CreadoEn,
	)
	return err
}

func (r *RecordatoriosRepo) Update(ctx context.Context, rec recordatorios.Recordatorio) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recordatorios
		SET
			dispara_en = $2,
			titulo = $3,
			cuerpo = $4,
			destino_push = $5,
			destino_email = $6,
			estado = $7
		WHERE id = $1
	`,
		rec.ID,
		rec.DisparaEn,
		rec.Titulo,
		rec.Cuerpo,
		rec.Destino.PushToken,
		rec.Destino.Email,
		string(rec.Estado),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return recordatorios.ErrNotFound
	}
	return nil
}

func (r *RecordatoriosRepo) GetByID(ctx context.Context, id string) (recordatorios.Recordatorio, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return recordatorios.Recordatorio{}, recordatorios.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, cita_id, dispara_en, titulo, cuerpo,
		       destino_push, destino_email, estado, creado_en
		FROM recordatorios
		WHERE id = $1
	`, id)
	return scanRecordatorio(row)
}

func (r *RecordatoriosRepo) GetByCita(ctx context.Context, citaID string) (recordatorios.Recordatorio, error) {
	citaID = strings.TrimSpace(citaID)
	if citaID == "" {
		return recordatorios.Recordatorio{}, recordatorios.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, cita_id, dispara_en, titulo, cuerpo,
		       destino_push, destino_email, estado, creado_en
		FROM recordatorios
		WHERE cita_id = $1
		ORDER BY creado_en DESC
		LIMIT 1
	`, citaID)
	return scanRecordatorio(row)
}

func scanRecordatorio(row *sql.Row) (recordatorios.Recordatorio, error) {
	var rec recordatorios.Recordatorio
	var destino notify.Destino
	var estado string

	err := row.Scan(
		&rec.ID,
		&rec.CitaID,
		&rec.DisparaEn,
		&rec.Titulo,
		&rec.Cuerpo,
		&destino.PushToken,
		&destino.Email,
		&estado,
		&rec.CreadoEn,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return recordatorios.Recordatorio{}, recordatorios.ErrNotFound
		}
		return recordatorios.Recordatorio{}, err
	}

	rec.Destino = destino
	rec.Estado = recordatorios.Estado(estado)
	return rec, nil
}
