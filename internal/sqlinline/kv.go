package sqlinline

const QEnsureKVTable = `--sql 3f6c2a1e-8b4d-4e0f-9a57-1c2d3e4f5a6b
create table if not exists kv_entries (
    key text primary key,
    value bytea not null,
    updated_at timestamptz not null default now()
);
`

const QSelectKV = `--sql 7d1e9b42-5c3a-4f8e-b2d6-0a9f8e7d6c5b
select value
from kv_entries
where key = $1;
`

const QUpsertKV = `--sql a4b8c2d6-e1f3-4a5b-8c7d-9e0f1a2b3c4d
insert into kv_entries (key, value, updated_at)
values ($1, $2, now())
on conflict (key) do update set
    value = excluded.value,
    updated_at = now();
`

const QDeleteKV = `--sql c9e7a5b3-1d2f-4e6a-8b0c-2d4f6a8b0c1e
delete from kv_entries
where key = $1;
`
